package spectrocoin

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var clientDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
	Name:       "client_duration_seconds",
	Help:       "client runtime duration and result",
	MaxAge:     time.Minute,
	Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
},
	[]string{"instance_name", "method", "result"},
)

type InstrumentedClient struct {
	name string
	cl   *Client
	vec  *prometheus.SummaryVec
}

// newInstrumentedClient returns an instance of the Client decorated with prometheus summary metric.
func newInstrumentedClient(name string, cl *Client) *InstrumentedClient {
	return &InstrumentedClient{
		name: name,
		cl:   cl,
		vec:  clientDuration,
	}
}

func (_d *InstrumentedClient) AccessToken(ctx context.Context) (s1 string, err error) {
	_since := time.Now()
	defer func() {
		_d.observe("AccessToken", _since, err)
	}()

	return _d.cl.AccessToken(ctx)
}

func (_d *InstrumentedClient) GetOrder(ctx context.Context, id string) (op1 *Order, err error) {
	_since := time.Now()
	defer func() {
		_d.observe("GetOrder", _since, err)
	}()

	return _d.cl.GetOrder(ctx, id)
}

func (_d *InstrumentedClient) observe(method string, since time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	_d.vec.WithLabelValues(_d.name, method, result).Observe(time.Since(since).Seconds())
}
