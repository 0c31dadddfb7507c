// Package mqttbus implements the message-bus push sink: it walks the
// current Prometheus registry on each flush and republishes every rctmon_*
// sample as an MQTT message (retained unless mqtt_retain is false) under a
// hierarchical topic built from
// the metric name and its labels. Grounded on
// original_source/src/rctmon/mqtt.py's MqttClient.flush(), extended with
// TLS/auth/topic-prefix/retain configuration per SPEC_FULL.md §12.
package mqttbus

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/svalouch/rctmon/internal/logger"
	"github.com/svalouch/rctmon/pkg/config"
)

// ignoredLabel is never turned into a topic segment, the same exemption
// mqtt.py's flush() carves out for the generic inverter label.
const ignoredLabel = "inverter"

// Sink implements daemon.BusFlusher.
type Sink struct {
	client      mqtt.Client
	gatherer    prometheus.Gatherer
	topicPrefix string
	retain      bool
}

// New connects to the configured broker and returns a Sink that republishes
// samples gathered from gatherer (the process's combined scrape registry:
// the readings collector plus the internal self-monitoring collectors).
func New(cfg config.MQTTConfig, gatherer prometheus.Gatherer) (*Sink, error) {
	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.TLSEnable {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))
	if cfg.ClientName != "" {
		opts.SetClientID(cfg.ClientName)
	}
	if cfg.AuthUser != "" {
		opts.SetUsername(cfg.AuthUser)
		opts.SetPassword(cfg.AuthPass)
	}
	if cfg.TLSEnable {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqttbus: connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttbus: connect: %w", err)
	}

	return &Sink{
		client:      client,
		gatherer:    gatherer,
		topicPrefix: strings.Trim(cfg.TopicPrefix, "/"),
		retain:      cfg.RetainEnabled(),
	}, nil
}

func buildTLSConfig(cfg config.MQTTConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.TLSInsecure} //nolint:gosec // operator opt-in via tls_insecure

	if cfg.TLSCACert != "" {
		pem, err := os.ReadFile(cfg.TLSCACert)
		if err != nil {
			return nil, fmt.Errorf("mqttbus: reading CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("mqttbus: no certificates found in %s", cfg.TLSCACert)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("mqttbus: loading client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Flush implements daemon.BusFlusher.
func (s *Sink) Flush() {
	families, err := s.gatherer.Gather()
	if err != nil {
		logger.Warn("mqttbus: gather failed", "error", err)
		return
	}
	for _, mf := range families {
		s.flushFamily(mf)
	}
}

func (s *Sink) flushFamily(mf *dto.MetricFamily) {
	for _, sample := range samplesForFamily(mf, s.topicPrefix) {
		token := s.client.Publish(sample.topic, 0, s.retain, sample.payload)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Warn("mqttbus: publish failed", "topic", sample.topic, "error", err)
		}
	}
}

type sample struct {
	topic   string
	payload string
}

// samplesForFamily turns one gathered metric family into its MQTT
// topic/payload pairs (mqtt.py's MqttClient.flush() loop body), or nil if
// the family isn't one of rctmon's own metrics.
func samplesForFamily(mf *dto.MetricFamily, topicPrefix string) []sample {
	name := mf.GetName()
	if !strings.HasPrefix(name, "rctmon") {
		return nil
	}
	baseTopic := strings.ReplaceAll(name, "_", "/")

	samples := make([]sample, 0, len(mf.GetMetric()))
	for _, m := range mf.GetMetric() {
		topic := baseTopic
		for _, lp := range m.GetLabel() {
			if lp.GetName() == ignoredLabel {
				continue
			}
			topic += "/" + lp.GetName() + "_" + lp.GetValue()
		}
		if topicPrefix != "" {
			topic = topicPrefix + "/" + topic
		}
		samples = append(samples, sample{
			topic:   topic,
			payload: strconv.FormatFloat(metricValue(m), 'g', -1, 64),
		})
	}
	return samples
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	default:
		return 0
	}
}

// Close disconnects from the broker, waiting up to 250ms to drain
// in-flight publishes.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}
