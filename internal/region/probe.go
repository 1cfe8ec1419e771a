package region

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultProbeTimeout = 500 * time.Millisecond
	defaultDialTimeout  = 1 * time.Second
	probeMaxWorkers     = 5

	// globalRateThreshold is the global-set success rate above which the
	// network is considered unambiguously outside China. Anything at or
	// below it classifies as China, even with zero in-country reachability:
	// a needlessly configured mirror still resolves, while a missing one
	// can break installs entirely.
	globalRateThreshold = 0.6
)

var (
	defaultChinaDomains = []string{
		"baidu.com", "taobao.com", "qq.com", "aliyun.com", "163.com",
	}
	defaultGlobalDomains = []string{
		"google.com", "facebook.com", "twitter.com", "github.com", "cloudflare.com",
	}
	defaultConnectivityDomains = []string{
		"baidu.com", "google.com", "cloudflare.com", "aliyun.com",
	}
)

// ErrNoConnectivity indicates the pre-flight connectivity check found no
// reachable test domain.
var ErrNoConnectivity = errors.New("no internet connectivity")

// ProbeResult is the outcome of one reachability probe. Latency is only
// meaningful when Reachable is true.
type ProbeResult struct {
	Domain    string
	Reachable bool
	Latency   time.Duration
}

// ProbeSummary aggregates probe results for one domain set. SuccessRate is
// in [0,1] with 0/0 defined as 0; AvgLatency covers successes only.
type ProbeSummary struct {
	SuccessRate float64
	AvgLatency  time.Duration
}

// Prober runs concurrent reachability probes to classify the host network.
type Prober struct {
	client              *http.Client
	logger              *slog.Logger
	chinaDomains        []string
	globalDomains       []string
	connectivityDomains []string
	probeTimeout        time.Duration
	dialTimeout         time.Duration
	maxWorkers          int
}

// NewProber creates a Prober with the built-in domain sets and timeouts.
func NewProber(logger *slog.Logger) *Prober {
	return &Prober{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: defaultProbeTimeout}).DialContext,
				TLSHandshakeTimeout: defaultProbeTimeout,
				DisableKeepAlives:   true,
			},
		},
		logger:              logger,
		chinaDomains:        defaultChinaDomains,
		globalDomains:       defaultGlobalDomains,
		connectivityDomains: defaultConnectivityDomains,
		probeTimeout:        defaultProbeTimeout,
		dialTimeout:         defaultDialTimeout,
		maxWorkers:          probeMaxWorkers,
	}
}

// Detect classifies the current network. It never fails: probe errors count
// as unreachable, and total ambiguity (no probe succeeding anywhere)
// classifies as China per the bias rule. Unknown is never returned.
func (p *Prober) Detect(ctx context.Context) Region {
	r, _, _ := p.DetectStats(ctx)
	return r
}

// DetectStats is Detect with the per-set summaries exposed, for logging and
// history recording.
func (p *Prober) DetectStats(ctx context.Context) (Region, ProbeSummary, ProbeSummary) {
	domains := make([]string, 0, len(p.chinaDomains)+len(p.globalDomains))
	domains = append(domains, p.chinaDomains...)
	domains = append(domains, p.globalDomains...)

	results := p.probeAll(ctx, domains)
	china := summarize(results[:len(p.chinaDomains)])
	global := summarize(results[len(p.chinaDomains):])

	p.logger.Info("network probes complete",
		"china_success_rate", china.SuccessRate,
		"china_avg_latency", china.AvgLatency,
		"global_success_rate", global.SuccessRate,
		"global_avg_latency", global.AvgLatency,
	)

	r := classify(global)
	if r == Global {
		p.logger.Info("detected global network environment")
	} else if china.SuccessRate > 0.5 {
		p.logger.Info("detected china network environment")
	} else {
		p.logger.Info("network environment ambiguous, assuming china")
	}
	return r, china, global
}

// classify applies the asymmetric bias rule: only a dominant global success
// rate yields Global, everything else is China.
func classify(global ProbeSummary) Region {
	if global.SuccessRate > globalRateThreshold {
		return Global
	}
	return China
}

// probeAll issues reachability probes for all domains through a bounded
// worker pool and waits for every probe to finish or time out. Each worker
// writes its own result slot; no state is shared between probes.
func (p *Prober) probeAll(ctx context.Context, domains []string) []ProbeResult {
	results := make([]ProbeResult, len(domains))
	sem := make(chan struct{}, p.maxWorkers)
	var wg sync.WaitGroup

	for i, d := range domains {
		wg.Add(1)
		go func(idx int, domain string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = p.probeOne(ctx, domain)
		}(i, d)
	}

	wg.Wait()
	return results
}

// probeOne attempts a single HTTP HEAD against the domain. All errors (DNS,
// refused connection, timeout) collapse into Reachable=false.
func (p *Prober) probeOne(ctx context.Context, domain string) ProbeResult {
	reqCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, "http://"+domain, nil)
	if err != nil {
		return ProbeResult{Domain: domain}
	}
	req.Header.Set("User-Agent", "regionctl/1.0")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", "domain", domain, "error", err)
		return ProbeResult{Domain: domain}
	}
	resp.Body.Close()

	return ProbeResult{Domain: domain, Reachable: true, Latency: time.Since(start)}
}

// CheckConnectivity races raw TCP dials against the connectivity domain set
// and reports whether any of them accepted a connection on port 80. The
// first success wins; in-flight dials are left to finish and be discarded.
func (p *Prober) CheckConnectivity(ctx context.Context) bool {
	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan bool, len(p.connectivityDomains))
	for _, d := range p.connectivityDomains {
		go func(domain string) {
			dialer := &net.Dialer{Timeout: p.dialTimeout}
			conn, err := dialer.DialContext(dialCtx, "tcp", hostport(domain))
			if err != nil {
				ch <- false
				return
			}
			conn.Close()
			ch <- true
		}(d)
	}

	for range p.connectivityDomains {
		if <-ch {
			return true
		}
	}
	return false
}

// summarize reduces raw probe results into a ProbeSummary.
func summarize(results []ProbeResult) ProbeSummary {
	var successes int
	var total time.Duration
	for _, r := range results {
		if r.Reachable {
			successes++
			total += r.Latency
		}
	}

	var s ProbeSummary
	if len(results) > 0 {
		s.SuccessRate = float64(successes) / float64(len(results))
	}
	if successes > 0 {
		s.AvgLatency = total / time.Duration(successes)
	}
	return s
}

// hostport appends the default probe port unless the domain already carries one.
func hostport(domain string) string {
	if strings.Contains(domain, ":") {
		return domain
	}
	return domain + ":80"
}
