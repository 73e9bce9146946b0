// Package mqtt publishes schedule setpoints through an Eclipse Paho client.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/evsched/core/monitoring"
	"github.com/kilianp07/evsched/core/publish"
	"github.com/kilianp07/evsched/core/report"
	"github.com/kilianp07/evsched/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string          `json:"broker" koanf:"broker"`
	ClientID     string          `json:"client_id" koanf:"client_id"`
	Username     string          `json:"username" koanf:"username"`
	Password     string          `json:"password" koanf:"password"`
	TopicPrefix  string          `json:"topic_prefix" koanf:"topic_prefix"`
	AckTopic     string          `json:"ack_topic" koanf:"ack_topic"`
	AckTimeoutMS int             `json:"ack_timeout_ms" koanf:"ack_timeout_ms"`
	Retain       bool            `json:"retain" koanf:"retain"`
	UseTLS       bool            `json:"use_tls" koanf:"use_tls"`
	ClientCert   string          `json:"client_cert" koanf:"client_cert"`
	ClientKey    string          `json:"client_key" koanf:"client_key"`
	CABundle     string          `json:"ca_bundle" koanf:"ca_bundle"`
	QoS          map[string]byte `json:"qos" koanf:"qos"`
	LWTTopic     string          `json:"lwt_topic" koanf:"lwt_topic"`
	LWTPayload   string          `json:"lwt_payload" koanf:"lwt_payload"`
	LWTQoS       byte            `json:"lwt_qos" koanf:"lwt_qos"`
	MaxRetries   int             `json:"max_retries" koanf:"max_retries"`
	BackoffMS    int             `json:"backoff_ms" koanf:"backoff_ms"`
	TLSConfig    *tls.Config     `json:"-" koanf:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements publish.Publisher using Eclipse Paho.
type PahoClient struct {
	cli        pahoClient
	prefix     string
	ackTopic   string
	ackTimeout time.Duration
	qos        map[string]byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
	mu         sync.Mutex
	ackChans   map[string]chan struct{}
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the ACK topic
// when one is configured.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		prefix:     cfg.TopicPrefix,
		ackTopic:   cfg.AckTopic,
		ackTimeout: time.Duration(cfg.AckTimeoutMS) * time.Millisecond,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
		ackChans:   make(map[string]chan struct{}),
	}
	if pc.maxRetries <= 0 {
		pc.maxRetries = 3
	}
	if pc.backoff <= 0 {
		pc.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if pc.ackTopic == "" {
			return
		}
		if token := c.Subscribe(pc.ackTopic, pc.qosFor("ack"), pc.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "evsched-" + uuid.NewString()[:8]
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, false)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		CommandID string `json:"command_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.ackChans[m.CommandID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Debugf("received ack %s", m.CommandID)
	}
	p.mu.Unlock()
}

// PublishSchedule sends one setpoint per entry. Failed entries are reported
// to the monitor and joined into the returned error; the remaining entries
// are still sent. When an ack topic and timeout are configured the call then
// waits for every sent command to be acknowledged.
func (p *PahoClient) PublishSchedule(ctx context.Context, runID string, entries []report.Entry) error {
	var errs []error
	var sent []string
	for _, e := range entries {
		cmdID, err := p.sendSetpoint(ctx, runID, e)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Join(append(errs, ctx.Err())...)
			}
			monitoring.CaptureException(err, map[string]string{
				"module":     "mqtt",
				"run_id":     runID,
				"charger_id": strconv.Itoa(e.ChargerID),
			})
			errs = append(errs, fmt.Errorf("charger %d interval %d: %w", e.ChargerID, e.Interval, err))
			continue
		}
		sent = append(sent, cmdID)
	}
	if p.waitsForAck() {
		missing := 0
		for _, id := range sent {
			if ok, _ := p.WaitForAck(ctx, id, p.ackTimeout); !ok {
				missing++
			}
		}
		if missing > 0 {
			errs = append(errs, fmt.Errorf("%w: %d of %d setpoints", publish.ErrAckTimeout, missing, len(sent)))
		}
	}
	return errors.Join(errs...)
}

func (p *PahoClient) sendSetpoint(ctx context.Context, runID string, e report.Entry) (string, error) {
	cmdID := uuid.NewString()
	payload, err := json.Marshal(publish.NewSetpoint(cmdID, runID, e))
	if err != nil {
		return "", err
	}
	if p.waitsForAck() {
		p.mu.Lock()
		p.ackChans[cmdID] = make(chan struct{}, 1)
		p.mu.Unlock()
	}
	topic := publish.Topic(p.prefix, e.ChargerID)
	qos := p.qosFor("setpoint")
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("sent setpoint %s to %s", cmdID, topic)
			return cmdID, nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			p.dropAck(cmdID)
			return "", ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	p.dropAck(cmdID)
	return "", publishErr
}

func (p *PahoClient) waitsForAck() bool {
	return p.ackTopic != "" && p.ackTimeout > 0
}

func (p *PahoClient) dropAck(cmdID string) {
	p.mu.Lock()
	delete(p.ackChans, cmdID)
	p.mu.Unlock()
}

// WaitForAck blocks until an ACK for the given command ID is received, the
// timeout elapses or ctx is done.
func (p *PahoClient) WaitForAck(ctx context.Context, commandID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[commandID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("unknown command %s", commandID)
	}
	defer p.dropAck(commandID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true, nil
	case <-timer.C:
		return false, publish.ErrAckTimeout
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
