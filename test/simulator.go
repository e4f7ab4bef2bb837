package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Business struct {
	ID   string `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name"`
}

func (Business) TableName() string {
	return "businesses"
}

type JoinRequest struct {
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact"`
}

type Admission struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

type Stats struct {
	totalRequests   atomic.Int64
	successRequests atomic.Int64
	rejected        atomic.Int64
	failedRequests  atomic.Int64
	totalLatency    atomic.Int64
	maxLatency      atomic.Int64
}

type Simulator struct {
	serverURL  string
	businesses []Business
	targetRPS  int
	duration   time.Duration
	stats      Stats
	httpClient *http.Client
	db         *gorm.DB

	mu      sync.Mutex
	entries map[string][]string
}

func NewSimulator(serverURL string, numBusinesses, targetRPS int, duration time.Duration, db *gorm.DB) *Simulator {
	businesses := make([]Business, numBusinesses)
	for i := range businesses {
		businesses[i] = Business{
			ID:   fmt.Sprintf("sim-%04d", i+1),
			Name: fmt.Sprintf("Simulated Business %d", i+1),
		}
	}

	return &Simulator{
		serverURL:  serverURL,
		businesses: businesses,
		targetRPS:  targetRPS,
		duration:   duration,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        1000,
				MaxIdleConnsPerHost: 1000,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		db:      db,
		entries: make(map[string][]string),
	}
}

// seedBusinesses registers the simulated businesses, skipping existing ones.
func (s *Simulator) seedBusinesses(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&s.businesses, 500).Error
	if err != nil {
		return fmt.Errorf("failed to insert businesses: %w", err)
	}
	fmt.Printf("seeded %d businesses\n", len(s.businesses))
	return nil
}

func (s *Simulator) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal error: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	latency := time.Since(start).Milliseconds()

	s.stats.totalLatency.Add(latency)
	for {
		current := s.stats.maxLatency.Load()
		if latency <= current || s.stats.maxLatency.CompareAndSwap(current, latency) {
			break
		}
	}
	return resp, err
}

// step performs one random queue operation: mostly joins, some advances and
// some cancellations of entries created earlier.
func (s *Simulator) step(ctx context.Context) {
	b := s.businesses[rand.Intn(len(s.businesses))]

	var (
		resp *http.Response
		err  error
		join bool
	)
	switch roll := rand.Intn(100); {
	case roll < 60:
		join = true
		resp, err = s.post(ctx, "/v1/businesses/"+b.ID+"/entries", JoinRequest{
			DisplayName: fmt.Sprintf("guest-%d", rand.Intn(100000)),
			Contact:     fmt.Sprintf("+1%010d", rand.Int63n(9999999999)),
		})
	case roll < 85:
		resp, err = s.post(ctx, "/v1/businesses/"+b.ID+"/advance", nil)
	default:
		id, ok := s.takeEntry(b.ID)
		if !ok {
			return
		}
		resp, err = s.post(ctx, "/v1/entries/"+id+"/cancel", nil)
	}

	if err != nil {
		s.stats.failedRequests.Add(1)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		s.stats.failedRequests.Add(1)
		_, _ = io.Copy(io.Discard, resp.Body)
	case resp.StatusCode >= 400:
		// full queues and empty advances are expected under load
		s.stats.rejected.Add(1)
		_, _ = io.Copy(io.Discard, resp.Body)
	default:
		s.stats.successRequests.Add(1)
		if !join {
			_, _ = io.Copy(io.Discard, resp.Body)
			return
		}
		var adm Admission
		if err := json.NewDecoder(resp.Body).Decode(&adm); err == nil {
			s.mu.Lock()
			s.entries[b.ID] = append(s.entries[b.ID], adm.ID)
			s.mu.Unlock()
		}
	}
}

func (s *Simulator) takeEntry(businessID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.entries[businessID]
	if len(ids) == 0 {
		return "", false
	}
	i := rand.Intn(len(ids))
	id := ids[i]
	s.entries[businessID] = append(ids[:i], ids[i+1:]...)
	return id, true
}

// Run starts the load test
func (s *Simulator) Run(ctx context.Context) {
	fmt.Printf("Target Server:     %s\n", s.serverURL)
	fmt.Printf("Businesses:        %d\n", len(s.businesses))
	fmt.Printf("Target RPS:        %d requests/second\n", s.targetRPS)
	fmt.Printf("Duration:          %s\n\n", s.duration)

	ticker := time.NewTicker(time.Second / time.Duration(s.targetRPS))
	defer ticker.Stop()

	testCtx, cancel := context.WithTimeout(ctx, s.duration)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.printStats(testCtx)
	}()

	startTime := time.Now()
	var requestWg sync.WaitGroup

	for {
		select {
		case <-testCtx.Done():
			requestWg.Wait()
			wg.Wait()
			s.printFinalReport(time.Since(startTime))
			return

		case <-ticker.C:
			s.stats.totalRequests.Add(1)
			requestWg.Add(1)
			go func() {
				defer requestWg.Done()
				s.step(testCtx)
			}()
		}
	}
}

func (s *Simulator) printStats(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	lastTotal := int64(0)
	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total := s.stats.totalRequests.Load()
			now := time.Now()
			rps := float64(total-lastTotal) / now.Sub(lastTime).Seconds()
			lastTotal, lastTime = total, now

			avgLatency := int64(0)
			if total > 0 {
				avgLatency = s.stats.totalLatency.Load() / total
			}

			fmt.Printf("total: %6d | ok: %6d | rejected: %6d | failed: %6d | rps: %7.1f | latency (ms): avg=%d max=%d\n",
				total, s.stats.successRequests.Load(), s.stats.rejected.Load(), s.stats.failedRequests.Load(),
				rps, avgLatency, s.stats.maxLatency.Load())
		}
	}
}

func (s *Simulator) printFinalReport(duration time.Duration) {
	total := s.stats.totalRequests.Load()
	failed := s.stats.failedRequests.Load()

	failureRate := float64(0)
	if total > 0 {
		failureRate = float64(failed) / float64(total) * 100
	}

	fmt.Printf("\nTest Duration:       %s\n", duration.Round(time.Second))
	fmt.Printf("Total Requests:      %d\n", total)
	fmt.Printf("Successful:          %d\n", s.stats.successRequests.Load())
	fmt.Printf("Rejected (4xx):      %d\n", s.stats.rejected.Load())
	fmt.Printf("Failed:              %d (%.2f%%)\n", failed, failureRate)
	fmt.Printf("Average RPS:         %.2f requests/sec\n", float64(total)/duration.Seconds())

	if failureRate <= 1.0 {
		fmt.Printf("PASSED\n")
	} else {
		fmt.Printf("FAILED\n")
	}
}

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 || (os.Args[1] != "seed" && os.Args[1] != "run") {
		fmt.Printf("Usage: %s [seed|run]\n", os.Args[0])
		fmt.Printf("  seed - Register the simulated businesses\n")
		fmt.Printf("  run  - Run load test\n")
		os.Exit(1)
	}

	const (
		serverURL     = "http://server:8080"
		numBusinesses = 200
		targetRPS     = 500
		testDuration  = 5 * time.Minute
	)

	dsn := "host=postgres user=postgres password=postgres dbname=lineup port=5432 sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		fmt.Printf("failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	s := NewSimulator(serverURL, numBusinesses, targetRPS, testDuration, db)

	switch os.Args[1] {
	case "seed":
		if err := s.seedBusinesses(ctx); err != nil {
			fmt.Printf("failed to seed businesses: %v\n", err)
			os.Exit(1)
		}
	case "run":
		s.Run(ctx)
	}
}
