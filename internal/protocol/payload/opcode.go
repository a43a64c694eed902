package payload

// OpCode identifies the application-level meaning of a Payload's
// parameters. The record layer never inspects it; it is opaque
// framing for whatever sits above a Session.
type OpCode = uint16

// Demo chat opcodes shared by the obscura-server and obscura-client
// binaries. An OpCode namespace is an application concern, not a core
// protocol one, so it lives beside the codec rather than inside it.
const (
	// OpChatText carries a relayed chat message: the recipient name
	// (which the gateway replaces with the sender name when relaying),
	// then the message text.
	OpChatText OpCode = 1
)
