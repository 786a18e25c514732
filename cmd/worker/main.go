package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lantern-kg/lantern/internal/queue"
	"github.com/lantern-kg/lantern/internal/storage"
	"github.com/lantern-kg/lantern/internal/util"
	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/flow/socket"
	"github.com/lantern-kg/lantern/pkg/leaselock"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/logger"
	"github.com/lantern-kg/lantern/pkg/logger/console"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.New(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init flow client
	flowClient, err := util.RetryWithContext(ctx, 5, func(ctx context.Context) (*socket.Client, error) {
		return socket.NewClient(ctx, socket.NewClientParams{
			URL:                   util.GetEnv("FLOW_URL"),
			Timeout:               util.GetEnvDuration("FLOW_TIMEOUT", 10*time.Minute),
			MaxConcurrentRequests: int64(util.GetEnvInt("FLOW_MAX_REQUESTS", 8)),
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to flow service", "err", err)
	}
	defer flowClient.Close()

	// Init s3 client
	s3, err := storage.NewClientFromEnv(ctx)
	if err != nil {
		logger.Fatal("Failed to create storage client", "err", err)
	}

	lib, err := library.NewLibrary(library.NewLibraryParams{
		Client: flowClient,
		Blobs:  s3,
	})
	if err != nil {
		logger.Fatal("Failed to create library", "err", err)
	}

	locks := leaselock.New(flowClient)

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	// Init rabbitmq queues if not exist
	if err := util.RetryErr(5, func() error {
		return queue.SetupQueues(ch, []string{queue.LibraryQueue})
	}); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	logger.Info("Listening for messages")

	// Consume with prefetch=1 so only one record is ingested at a time
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.LibraryQueue,
		queue.LibraryQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.LibraryQueue, "err", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed", "queue", queue.LibraryQueue)
					return
				}

				startTime := time.Now()
				logger.Info("Received message", "queue", queue.LibraryQueue)

				processingErr := processLibraryDelivery(ctx, locks, lib, flowClient, ch, string(msg.Body))

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", queue.LibraryQueue, "err", processingErr)
					handleProcessingError(consumerCh, msg, queue.LibraryQueue)
				} else {
					if err := msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", queue.LibraryQueue)
				}

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

// processLibraryDelivery ingests one record under a lease so a
// redelivered message cannot run concurrently with the original.
func processLibraryDelivery(ctx context.Context, locks *leaselock.Client, lib *library.Library, client flow.Client, ch *amqp.Channel, body string) error {
	var msg queue.LibraryMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("decode library message: %w", err)
	}

	key := fmt.Sprintf("library/%s/%s", msg.Collection, msg.RecordID)
	err := locks.WithLease(ctx, key, leaselock.Options{
		TTL:         util.GetEnvDuration("INGEST_LEASE_TTL", 5*time.Minute),
		TokenPrefix: "worker-",
	}, func(leaseCtx context.Context) error {
		return queue.ProcessLibraryMessage(leaseCtx, lib, client, ch, body)
	})
	if errors.Is(err, leaselock.ErrBusy) {
		return fmt.Errorf("record %s is already being processed: %w", msg.RecordID, err)
	}
	return err
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// If message has been retried 10 times, send to dead-letter
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
