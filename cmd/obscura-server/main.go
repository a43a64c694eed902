// Command obscura-server runs the demo gateway: identity directory,
// relay mailbox, and the WebSocket handshake/session endpoint.
// Grounded on the teacher's cmd/server/main.go wiring shape (Mongo +
// Redis dial, HTTP server run, signal-based shutdown).
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"obscuraproto/internal/cryptographic/crypto"
	"obscuraproto/internal/obslog"
	"obscuraproto/internal/repository/identity"
	"obscuraproto/internal/service/gateway"
	"obscuraproto/internal/service/relay"
)

func main() {
	var (
		listenAddr = flag.String("addr", ":8080", "HTTP listen address")
		serverName = flag.String("name", "obscura-server", "this server's identity directory name")
		mongoURI   = flag.String("mongo", "mongodb://localhost:27017", "MongoDB connection URI")
		redisAddr  = flag.String("redis", "localhost:6379", "Redis address")
	)
	flag.Parse()
	defer obslog.Sync()

	mongoClient, err := connectMongo(*mongoURI)
	if err != nil {
		obslog.Fatal("mongo connect failed", zap.Error(err))
	}
	db := mongoClient.Database("obscuraproto")

	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})

	identities := identity.New(db)
	mailbox := relay.New(rdb)

	signingKey, err := crypto.GenerateSignKeyPair()
	if err != nil {
		obslog.Fatal("generate server signing key failed", zap.Error(err))
	}

	gw := gateway.New(identities, mailbox, signingKey, *serverName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := gw.RegisterSelf(ctx); err != nil {
		cancel()
		obslog.Fatal("register server identity failed", zap.Error(err))
	}
	cancel()

	srv := &http.Server{Addr: *listenAddr, Handler: gw.Router()}
	go func() {
		obslog.Info("obscura-server listening", zap.String("addr", *listenAddr), zap.String("name", *serverName))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.Fatal("server exited", zap.Error(err))
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func connectMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
