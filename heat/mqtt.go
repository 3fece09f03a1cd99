package heat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// defaultIngestTopic receives delimited point rows when the config leaves
// the topic unset.
const defaultIngestTopic = "geoglow/points"

// IngestHandler receives the decoded points of one MQTT payload along with
// the count of rows that failed validation.
type IngestHandler func(points []Point, skipped int)

// MQTTClient manages the broker connection and the ingest subscription.
type MQTTClient struct {
	client      mqtt.Client
	config      *Config
	handler     IngestHandler
	isConnected bool
	mu          sync.RWMutex
}

// InitMQTT initializes the MQTT client with the provided configuration.
// If neither the MQTT_BROKER env var nor the config sets a broker, MQTT is
// disabled and this returns nil.
func InitMQTT(config *Config, handler IngestHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}
	if broker == "" {
		log.Println("MQTT disabled: no broker configured")
		return nil, nil
	}
	if handler == nil {
		return nil, fmt.Errorf("MQTT enabled but no ingest handler provided")
	}

	c := &MQTTClient{
		config:  config,
		handler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "geoglow"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // preserve the ingest subscription across reconnects
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.client = mqtt.NewClient(opts)

	go c.connectWithRetry()

	return c, nil
}

// IngestTopic returns the configured ingest topic or the default.
func (c *MQTTClient) IngestTopic() string {
	if c.config != nil && c.config.MQTT.IngestTopic != "" {
		return c.config.MQTT.IngestTopic
	}
	return defaultIngestTopic
}

// connectWithRetry attempts to connect with exponential backoff.
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("Connecting to MQTT broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("MQTT connection failed: %v", token.Error())
		} else {
			log.Println("MQTT connection timeout")
		}

		log.Printf("Retrying MQTT connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

func (c *MQTTClient) onConnect(client mqtt.Client) {
	topic := c.IngestTopic()
	log.Printf("MQTT connected, subscribing to %s", topic)
	c.setConnected(true)

	token := client.Subscribe(topic, 1, c.onMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("Error subscribing to %s: %v", topic, token.Error())
	}
}

// onMessage decodes a payload of delimited point rows and forwards the
// validated batch to the ingest handler.
func (c *MQTTClient) onMessage(client mqtt.Client, msg mqtt.Message) {
	res, err := DecodePoints(bytes.NewReader(msg.Payload()))
	if err != nil {
		log.Printf("Error decoding ingest payload on %s: %v", msg.Topic(), err)
		return
	}
	if len(res.Points) == 0 {
		log.Printf("Ingest payload on %s contained no valid rows (%d skipped)", msg.Topic(), res.Skipped)
		return
	}
	c.handler(res.Points, res.Skipped)
}

func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("MQTT reconnecting...")
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// IsConnected reports the connection state.
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// GetClient exposes the underlying client for the publisher.
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// Disconnect closes the broker connection.
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}

// RenderNotice is published after every completed render.
type RenderNotice struct {
	Categories []string `json:"categories"`
	Points     int      `json:"points"`
	Bytes      int      `json:"bytes"`
	Timestamp  int64    `json:"timestamp"`
}

// Publisher announces completed renders on MQTT.
type Publisher struct {
	client mqtt.Client
	prefix string
}

// NewPublisher creates a render publisher. A nil client disables
// publishing (for testing and batch mode).
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "geoglow"
	}
	return &Publisher{client: client, prefix: prefix}
}

// PublishRender announces a finished archive on <prefix>/renders.
func (p *Publisher) PublishRender(categories []string, points, archiveBytes int) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	notice := RenderNotice{
		Categories: categories,
		Points:     points,
		Bytes:      archiveBytes,
		Timestamp:  time.Now().Unix(),
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshaling render notice: %w", err)
	}

	topic := fmt.Sprintf("%s/renders", p.prefix)
	token := p.client.Publish(topic, 0, true, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}
