package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/config"
	"github.com/chronicle-hq/chronicle/internal/db"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
	"github.com/chronicle-hq/chronicle/internal/store/gormstore"
	"github.com/chronicle-hq/chronicle/internal/store/rabbitmq"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	// the worker shares rows with the API server, so the ephemeral backend
	// cannot serve it
	if strings.ToLower(cfg.StoreBackend) != "mysql" {
		log.Fatalf("worker requires STORE_BACKEND=mysql, got %q", cfg.StoreBackend)
	}
	gdb := db.Connect(cfg.DBDSN)
	st := gormstore.New(gdb)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	})
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var ev rabbitmq.RoomEvent
				if err := json.Unmarshal(d.Body, &ev); err != nil || ev.RoomID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleEvent(ctx, st, ev); err != nil {
					log.Printf("worker=%d event %s room=%s failed cost=%s err=%v",
						workerID, ev.Kind, ev.RoomID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed room=%s err=%v", workerID, ev.RoomID, err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// handleEvent appends a system message narrating the room event. Events for
// rooms that no longer exist are dropped, not retried.
func handleEvent(ctx context.Context, st store.Store, ev rabbitmq.RoomEvent) error {
	var text string
	switch ev.Kind {
	case rabbitmq.KindPostCreated:
		text = fmt.Sprintf("%s published a post: %s", ev.Author, ev.PostTitle)
	default:
		log.Printf("unknown event kind=%s room=%s, dropping", ev.Kind, ev.RoomID)
		return nil
	}

	id, err := common.NewULID()
	if err != nil {
		return err
	}
	msg := &models.Message{
		ID:        id,
		RoomID:    ev.RoomID,
		Kind:      models.KindSystem,
		Author:    "system",
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := st.AppendMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("room %s gone, dropping event", ev.RoomID)
			return nil
		}
		return err
	}
	return nil
}
