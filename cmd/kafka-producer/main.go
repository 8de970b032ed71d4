package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/lucid-arena/internal/domain"
)

// Stands in for the mini-game servers: reports one score per player for a
// mini-game on the results topic, the way real game servers would.
func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "arena-minigame-results", "Kafka results topic")
	lobbyID := flag.String("lobby", "", "Lobby ID (required)")
	miniGame := flag.String("game", string(domain.MiniGameStar), "Mini-game name")
	players := flag.String("players", "", "Player nicknames (comma-separated, required)")
	maxScore := flag.Int("max-score", 100, "Random scores are drawn from [0, max-score]")
	rounds := flag.Int("rounds", 1, "How many times to report the mini-game")
	interval := flag.Duration("interval", time.Second, "Delay between rounds")
	flag.Parse()

	if *lobbyID == "" || *players == "" {
		flag.Usage()
		os.Exit(2)
	}
	game, err := domain.ParseMiniGame(*miniGame)
	if err != nil {
		log.Fatalf("Invalid mini-game: %v", err)
	}
	nicknames := strings.Split(*players, ",")
	if game.IsSolo() && len(nicknames) != 1 {
		log.Fatalf("%s is a solo mini-game, pass exactly one player", game)
	}

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🎲 Mini-game Result Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:          %s\n", *brokers)
	fmt.Printf("  Topic:            %s\n", *topic)
	fmt.Printf("  Lobby:            %s\n", *lobbyID)
	fmt.Printf("  Mini-game:        %s (%s)\n", game, game.Kind())
	fmt.Printf("  Players:          %s\n", strings.Join(nicknames, ", "))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	finish := func() {
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	for round := 1; round <= *rounds; round++ {
		for _, nickname := range nicknames {
			submission := domain.MiniGameSubmission{
				LobbyID:      *lobbyID,
				MiniGameName: string(game),
				Player:       nickname,
				Score:        rand.IntN(*maxScore + 1),
			}
			data, err := json.Marshal(submission)
			if err != nil {
				log.Printf("Failed to marshal message: %v", err)
				continue
			}

			// Keyed by lobby so one lobby's results stay in order
			producer.Input() <- &sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(*lobbyID),
				Value: sarama.ByteEncoder(data),
			}
			fmt.Printf("[%s] round %d: %s scored %d\n", time.Now().Format("15:04:05"), round, nickname, submission.Score)
		}

		if round == *rounds {
			break
		}
		select {
		case <-sigChan:
			fmt.Println("\n\nShutting down...")
			finish()
			return
		case <-time.After(*interval):
		}
	}

	finish()
}
