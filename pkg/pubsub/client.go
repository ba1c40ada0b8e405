package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
)

// Role selects which resource a client verifies on start and on Ping.
type Role int

const (
	// RolePublisher checks the orders topic.
	RolePublisher Role = iota + 1
	// RoleSubscriber checks the orders subscription.
	RoleSubscriber
)

func (r Role) String() string {
	switch r {
	case RolePublisher:
		return "publisher"
	case RoleSubscriber:
		return "subscriber"
	}
	return "unknown"
}

var (
	ErrProjectIDRequired = errors.New("gcp project id is required")
	ErrResourceMissing   = errors.New("pubsub resource does not exist")
)

// Client wraps a Pub/Sub v2 client. Publishers are created once per topic
// with message ordering on, so events of one order keep their sequence.
type Client struct {
	client  *pubsub.Client
	project string
	cfg     config.PubSubConfig
	role    Role

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, role Role, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, ErrProjectIDRequired
	}
	if role != RolePublisher && role != RoleSubscriber {
		return nil, fmt.Errorf("unsupported pubsub role %d", role)
	}

	raw, err := pubsub.NewClient(ctx, project, gcp.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{
		client:     raw,
		project:    project,
		cfg:        cfg,
		role:       role,
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "pubsub_role", role.String()), "pubsub client initialized")
	}
	return c, nil
}

// Ping confirms the resource this client depends on still exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	switch c.role {
	case RolePublisher:
		name := resourceName(c.project, "topics", c.cfg.OrdersTopic)
		if name == "" {
			return errors.New("pubsub orders topic is required")
		}
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
		return checkResource("topic", name, err)
	default:
		name := resourceName(c.project, "subscriptions", c.cfg.OrdersSubscription)
		if name == "" {
			return errors.New("pubsub orders subscription is required")
		}
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: name})
		return checkResource("subscription", name, err)
	}
}

func checkResource(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%w: %s %s", ErrResourceMissing, kind, name)
	}
	return fmt.Errorf("checking %s %s: %w", kind, name, err)
}

// Publisher returns the cached publisher for topic (an ID or a full
// resource name), or nil when the name is blank.
func (c *Client) Publisher(topic string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	name := resourceName(c.project, "topics", topic)
	if name == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[name]; ok {
		return pub
	}
	pub := c.client.Publisher(name)
	pub.EnableMessageOrdering = true
	c.publishers[name] = pub
	return pub
}

// OrdersSubscription returns the subscriber the analytics worker reads.
func (c *Client) OrdersSubscription() *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	name := resourceName(c.project, "subscriptions", c.cfg.OrdersSubscription)
	if name == "" {
		return nil
	}
	return c.client.Subscriber(name)
}

// Close flushes every publisher before closing the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for name, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.client.Close()
}

// resourceName expands an ID into projects/<project>/<kind>/<id>. Names that
// are already fully qualified for kind pass through.
func resourceName(project, kind, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	if project == "" {
		return ""
	}
	return "projects/" + project + "/" + kind + "/" + name
}
