package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// Client owns the broker connection. Subscriber and Publisher share its
// native client.
type Client struct {
	client mqtt.Client
	config ClientConfig

	mu          sync.Mutex
	onReconnect []func()
	connected   bool
}

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// StatusTopic gets a retained "online" on connect and "offline" as the
	// last will. Empty disables it.
	StatusTopic string
}

// NewClient connects to the broker
func NewClient(config ClientConfig) (*Client, error) {
	c := &Client{config: config}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		log.Printf("MQTT: Unhandled message on topic: %s", msg.Topic())
	})
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	if config.StatusTopic != "" {
		opts.SetWill(config.StatusTopic, statusOffline, 1, true)
	}

	c.client = mqtt.NewClient(opts)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("MQTT Client: Connected to broker:", config.Broker)
	return c, nil
}

// OnReconnect registers fn to run after every reconnect, e.g. to restore
// subscriptions the broker dropped with a clean session
func (c *Client) OnReconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnect = append(c.onReconnect, fn)
}

func (c *Client) handleConnect(client mqtt.Client) {
	c.mu.Lock()
	reconnect := c.connected
	c.connected = true
	callbacks := append([]func(){}, c.onReconnect...)
	c.mu.Unlock()

	log.Println("MQTT: Connection established")

	if c.config.StatusTopic != "" {
		client.Publish(c.config.StatusTopic, 1, true, statusOnline)
	}

	if reconnect {
		// paho runs this handler on its own goroutine, blocking on tokens is fine
		for _, fn := range callbacks {
			fn()
		}
	}
}

// GetNativeClient returns the underlying paho MQTT client
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// IsConnected returns whether the client is currently connected
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close announces the offline status and disconnects
func (c *Client) Close() {
	if c.config.StatusTopic != "" && c.client.IsConnected() {
		c.client.Publish(c.config.StatusTopic, 1, true, statusOffline).WaitTimeout(time.Second)
	}
	c.client.Disconnect(250)
	log.Println("MQTT Client: Disconnected")
}
