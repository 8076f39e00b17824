package health

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"agrofund-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Goroutines    int    `json:"goroutines"`
	Platform      string `json:"platform"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// CollectHealth gathers health data from Redis counters and an optional DB ping.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
	}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if db != nil {
		start := time.Now()
		if err := db.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := "disconnected"
	var redisPingMs *int64
	traffic := TrafficInfo{SuccessRate: "100", AvgResponseTime: 0}

	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"

			totalReq := getInt(ctx, rdb, middleware.KeyReqTotal)
			totalErr := getInt(ctx, rdb, middleware.KeyReqErrors)
			resTime := getFloat(ctx, rdb, middleware.KeyResTime)
			resCount := getInt(ctx, rdb, middleware.KeyResCount)

			traffic.TotalRequests = totalReq
			traffic.FailedCount = totalErr
			traffic.SuccessCount = totalReq - totalErr
			if totalReq > 0 {
				traffic.SuccessRate = fmt.Sprintf("%.1f", float64(totalReq-totalErr)/float64(totalReq)*100)
			}
			if resCount > 0 {
				traffic.AvgResponseTime = resTime / float64(resCount)
			}
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}
	result.Traffic = traffic

	result.Runtime = RuntimeInfo{
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS,
		GoVersion:     runtime.Version(),
	}

	result.Status = "ok"
	if dbStatus == "error" || redisStatus == "error" {
		result.Status = "degraded"
	}
	return result
}

var startTime = time.Now()

func getInt(ctx context.Context, rdb *redis.Client, key string) int {
	s, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

func getFloat(ctx context.Context, rdb *redis.Client, key string) float64 {
	s, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
