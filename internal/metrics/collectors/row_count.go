package collectors

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	TotalBlockCountQuery       = `SELECT COUNT(*) FROM bigchain`
	TotalTransactionCountQuery = `SELECT COALESCE(SUM(jsonb_array_length(data->'block'->'transactions')), 0) FROM bigchain`
	BacklogCountQuery          = `SELECT COUNT(*) FROM backlog`
	TotalVoteCountQuery        = `SELECT COUNT(*) FROM votes`
)

// CountCollector reports the single integer returned by query as a gauge.
type CountCollector struct {
	db    *sql.DB
	query string
	desc  *prometheus.Desc
}

func NewCountCollector(db *sql.DB, query, subsystem, name, help string) *CountCollector {
	return &CountCollector{
		db:    db,
		query: query,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName("chainstore", subsystem, name),
			help,
			nil,
			prometheus.Labels{"source": "postgres"},
		),
	}
}

func (c *CountCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *CountCollector) Collect(ch chan<- prometheus.Metric) {
	var count int64
	err := c.db.QueryRow(c.query).Scan(&count)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(count))
}

func init() {
	RegisterCollectorFactory(func(db *sql.DB) (prometheus.Collector, error) {
		return NewCountCollector(db, TotalBlockCountQuery, "blocks", "total_count", "Total number of blocks, genesis included"), nil
	})
	RegisterCollectorFactory(func(db *sql.DB) (prometheus.Collector, error) {
		return NewCountCollector(db, TotalTransactionCountQuery, "transactions", "total_count", "Total number of transactions in written blocks"), nil
	})
	RegisterCollectorFactory(func(db *sql.DB) (prometheus.Collector, error) {
		return NewCountCollector(db, BacklogCountQuery, "backlog", "count", "Number of transactions waiting in the backlog"), nil
	})
	RegisterCollectorFactory(func(db *sql.DB) (prometheus.Collector, error) {
		return NewCountCollector(db, TotalVoteCountQuery, "votes", "total_count", "Total number of votes"), nil
	})
}
