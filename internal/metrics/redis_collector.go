package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

type redisCollector struct {
	rdb    *redis.Client
	logger *slog.Logger

	ownersDesc   *prometheus.Desc
	subsDesc     *prometheus.Desc
	logDepthDesc *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, logger *slog.Logger) *redisCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCollector{
		rdb:    rdb,
		logger: logger,
		ownersDesc: prometheus.NewDesc(
			"hookq_owners",
			"Accounts with at least one registered subscription.",
			nil,
			nil,
		),
		subsDesc: prometheus.NewDesc(
			"hookq_subscriptions",
			"Registered subscriptions across all owners.",
			nil,
			nil,
		),
		logDepthDesc: prometheus.NewDesc(
			"hookq_delivery_log_depth",
			"Retained delivery log entries across all owners.",
			nil,
			nil,
		),
	}
}

func (c *redisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ownersDesc
	ch <- c.subsDesc
	ch <- c.logDepthDesc
}

func (c *redisCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	owners, err := c.rdb.SMembers(ctx, "hookq:owners").Result()
	if err != nil && err != redis.Nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}

	pipe := c.rdb.Pipeline()
	subCmds := make([]*redis.IntCmd, 0, len(owners))
	logCmds := make([]*redis.IntCmd, 0, len(owners))
	for _, owner := range owners {
		subCmds = append(subCmds, pipe.HLen(ctx, keySubsHash(owner)))
		logCmds = append(logCmds, pipe.LLen(ctx, keyDeliveries(owner)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}

	var subs, logs int64
	for i := range owners {
		subs += subCmds[i].Val()
		logs += logCmds[i].Val()
	}

	emitGauge(ch, c.ownersDesc, float64(len(owners)))
	emitGauge(ch, c.subsDesc, float64(subs))
	emitGauge(ch, c.logDepthDesc, float64(logs))
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

func keySubsHash(ownerID string) string {
	return fmt.Sprintf("hookq:subs:%s", ownerID)
}

func keyDeliveries(ownerID string) string {
	return fmt.Sprintf("hookq:deliveries:%s", ownerID)
}

var registerRedisCollectorOnce sync.Once

func RegisterRedisCollector(rdb *redis.Client, logger *slog.Logger) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(newRedisCollector(rdb, logger))
	})
}
