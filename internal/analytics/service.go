// Package analytics aggregates order activity in memory for the storefront
// dashboard: revenue, order counts, average order value, top products and a
// per-day revenue series. It consumes the same order.created events the
// event stream carries.
package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryankapoor/zapkart-backend/internal/orders"
)

// Summary is the headline dashboard view.
type Summary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	OrderCount        int             `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// ProductStat ranks one product by units sold.
type ProductStat struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// DayRevenue is one day's revenue in the time series.
type DayRevenue struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type productAgg struct {
	name         string
	unitsSold    int
	revenuePaise int
}

type dayAgg struct {
	revenuePaise int
	orders       int
}

// Service accumulates order events. It implements orders.Publisher so it can
// be fanned out next to the real event stream.
type Service struct {
	mu           sync.Mutex
	orderCount   int
	revenuePaise int
	products     map[uuid.UUID]*productAgg
	days         map[string]*dayAgg
}

func NewService() *Service {
	return &Service{
		products: map[uuid.UUID]*productAgg{},
		days:     map[string]*dayAgg{},
	}
}

// PublishOrderCreated records one placed order.
func (s *Service) PublishOrderCreated(_ context.Context, event orders.OrderCreatedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderCount++
	s.revenuePaise += event.TotalPaise

	for _, item := range event.Items {
		agg := s.products[item.ProductID]
		if agg == nil {
			agg = &productAgg{name: item.Name}
			s.products[item.ProductID] = agg
		}
		agg.unitsSold += item.Qty
		agg.revenuePaise += item.TotalPaise
	}

	day := event.PlacedAt.UTC().Format(time.DateOnly)
	d := s.days[day]
	if d == nil {
		d = &dayAgg{}
		s.days[day] = d
	}
	d.revenuePaise += event.TotalPaise
	d.orders++
}

// Summary returns the totals recorded so far.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Summary{
		Revenue:           fromPaise(s.revenuePaise),
		OrderCount:        s.orderCount,
		AverageOrderValue: decimal.Zero,
	}
	if s.orderCount > 0 {
		out.AverageOrderValue = out.Revenue.Div(decimal.NewFromInt(int64(s.orderCount))).Round(2)
	}
	return out
}

// TopProducts returns up to n products ranked by units sold, revenue as the
// tiebreak.
func (s *Service) TopProducts(n int) []ProductStat {
	s.mu.Lock()
	stats := make([]ProductStat, 0, len(s.products))
	for id, agg := range s.products {
		stats = append(stats, ProductStat{
			ProductID: id,
			Name:      agg.name,
			UnitsSold: agg.unitsSold,
			Revenue:   fromPaise(agg.revenuePaise),
		})
	}
	s.mu.Unlock()

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].UnitsSold != stats[j].UnitsSold {
			return stats[i].UnitsSold > stats[j].UnitsSold
		}
		return stats[i].Revenue.GreaterThan(stats[j].Revenue)
	})
	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// RevenueByDay returns the daily revenue series in chronological order.
func (s *Service) RevenueByDay() []DayRevenue {
	s.mu.Lock()
	series := make([]DayRevenue, 0, len(s.days))
	for day, agg := range s.days {
		series = append(series, DayRevenue{
			Day:     day,
			Revenue: fromPaise(agg.revenuePaise),
			Orders:  agg.orders,
		})
	}
	s.mu.Unlock()

	sort.Slice(series, func(i, j int) bool { return series[i].Day < series[j].Day })
	return series
}

func fromPaise(paise int) decimal.Decimal {
	return decimal.NewFromInt(int64(paise)).Shift(-2)
}
