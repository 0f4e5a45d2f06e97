package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-booking/internal/db"
)

// simulate fires concurrent booking requests at the API, deliberately
// racing many patients for a small set of (doctor, slot) pairs, and
// reports how the conflicts resolved. With the pending-slot unique index
// in place, successes per slot must never exceed one.

type simConfig struct {
	apiBaseURL  string
	duration    time.Duration
	workers     int
	slotCount   int
	postgresDSN string
}

type counters struct {
	total     int64
	booked    int64
	conflicts int64
	errors    int64
}

type bookRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type slotTarget struct {
	doctorID uuid.UUID
	date     string
	clock    string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := simConfig{
		apiBaseURL:  envOr("API_BASE_URL", "http://localhost:8080"),
		duration:    envDuration("SIM_DURATION", 30*time.Second),
		workers:     envInt("SIM_WORKERS", 16),
		slotCount:   envInt("SIM_SLOTS", 10),
		postgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if cfg.postgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required to load doctors and patients")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.postgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	doctors, err := loadIDs(context.Background(), pool, "SELECT id FROM doctors LIMIT 50")
	if err != nil || len(doctors) == 0 {
		log.Fatalf("load doctors (run cmd/seed first): %v", err)
	}
	patients, err := loadIDs(context.Background(), pool, "SELECT id FROM patients LIMIT 500")
	if err != nil || len(patients) == 0 {
		log.Fatalf("load patients (run cmd/seed first): %v", err)
	}

	targets := buildTargets(doctors, cfg.slotCount)
	log.Printf("racing %d workers over %d slots for %s", cfg.workers, len(targets), cfg.duration)

	var c counters
	client := &http.Client{Timeout: 5 * time.Second}

	runCtx, stop := context.WithTimeout(context.Background(), cfg.duration)
	defer stop()

	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for runCtx.Err() == nil {
				target := targets[rng.Intn(len(targets))]
				patient := patients[rng.Intn(len(patients))]
				book(runCtx, client, cfg.apiBaseURL, target, patient, &c)
			}
		}(int64(w) + time.Now().UnixNano())
	}
	wg.Wait()

	fmt.Printf("\ntotal=%d booked=%d conflicts=%d errors=%d\n",
		atomic.LoadInt64(&c.total),
		atomic.LoadInt64(&c.booked),
		atomic.LoadInt64(&c.conflicts),
		atomic.LoadInt64(&c.errors),
	)
	if booked, slots := atomic.LoadInt64(&c.booked), int64(len(targets)); booked > slots {
		fmt.Printf("DOUBLE BOOKING DETECTED: %d successes for %d slots\n", booked, slots)
		os.Exit(1)
	}
	fmt.Println("no slot admitted more than one booking")
}

func book(ctx context.Context, client *http.Client, baseURL string, target slotTarget, patient uuid.UUID, c *counters) {
	body, _ := json.Marshal(bookRequest{
		DoctorID:  target.doctorID.String(),
		PatientID: patient.String(),
		Date:      target.date,
		Time:      target.clock,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			atomic.AddInt64(&c.total, 1)
			atomic.AddInt64(&c.errors, 1)
		}
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	atomic.AddInt64(&c.total, 1)
	switch {
	case resp.StatusCode == http.StatusCreated:
		atomic.AddInt64(&c.booked, 1)
	case resp.StatusCode == http.StatusConflict:
		atomic.AddInt64(&c.conflicts, 1)
	default:
		atomic.AddInt64(&c.errors, 1)
	}
}

func buildTargets(doctors []uuid.UUID, count int) []slotTarget {
	targets := make([]slotTarget, 0, count)
	base := time.Now().AddDate(0, 0, 30)
	for i := 0; i < count; i++ {
		targets = append(targets, slotTarget{
			doctorID: doctors[i%len(doctors)],
			date:     base.AddDate(0, 0, i/18).Format("2006-01-02"),
			clock:    fmt.Sprintf("%02d:%02d", 8+(i%9), 30*(i%2)),
		})
	}
	return targets
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
