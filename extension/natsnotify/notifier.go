// Package natsnotify 把方言注册与扩展加载事件发布到 NATS。
//
// Notifier 同时实现 extension.Observer 与 extension.LoadObserver，
// 发布失败只记录日志，不影响注册或发现流程。
package natsnotify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"dbadapter/extension"
	"dbadapter/logging"
)

const (
	EventRegistered = "registered"
	EventLoaded     = "loaded"
)

// publisher captures the subset of *nats.Conn we rely on.
type publisher interface {
	Publish(subj string, data []byte) error
}

// Config 配置通知器
type Config struct {
	URL           string
	Conn          *nats.Conn
	SubjectPrefix string
	Logger        logging.Logger
}

// Event 发布到 NATS 的消息体
type Event struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	Name       string    `json:"name,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	Redeclared bool      `json:"redeclared,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier 发布注册表事件
type Notifier struct {
	cfg      Config
	pub      publisher
	conn     *nats.Conn
	ownsConn bool
	logger   logging.Logger
	now      func() time.Time
}

var (
	_ extension.Observer     = (*Notifier)(nil)
	_ extension.LoadObserver = (*Notifier)(nil)
)

// New 创建通知器；未提供 Conn 时按 URL 建立连接
func New(cfg Config) (*Notifier, error) {
	if cfg.Conn != nil {
		n := newWithPublisher(cfg.Conn, cfg)
		n.conn = cfg.Conn
		return n, nil
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Name(extension.DefaultNamespace+"-notify"))
	if err != nil {
		return nil, err
	}
	n := newWithPublisher(nc, cfg)
	n.conn, n.ownsConn = nc, true
	return n, nil
}

func newWithPublisher(pub publisher, cfg Config) *Notifier {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = extension.DefaultNamespace + ".dialects"
	}
	cfg.SubjectPrefix = strings.TrimSuffix(cfg.SubjectPrefix, ".")
	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger().WithFields(logging.String("component", "extension.natsnotify"))
	}
	return &Notifier{cfg: cfg, pub: pub, logger: cfg.Logger, now: time.Now}
}

// Attach 把通知器挂到注册表与（可选的）加载器选项上
func (n *Notifier) Attach(reg *extension.Registry) extension.LoaderOption {
	reg.AddObserver(n)
	return extension.WithLoadObserver(n)
}

// DialectRegistered 实现 extension.Observer
func (n *Notifier) DialectRegistered(d *extension.Descriptor, redeclared bool) {
	n.publish(EventRegistered, Event{Name: string(d.Name()), Redeclared: redeclared})
}

// UnitLoaded 实现 extension.LoadObserver
func (n *Notifier) UnitLoaded(id string) {
	n.publish(EventLoaded, Event{Unit: id})
}

// Subject 返回事件对应的主题
func (n *Notifier) Subject(event string) string {
	return n.cfg.SubjectPrefix + "." + event
}

func (n *Notifier) publish(event string, e Event) {
	e.ID = uuid.NewString()
	e.Event = event
	e.At = n.now().UTC()

	subject := n.Subject(event)
	data, err := json.Marshal(e)
	if err == nil {
		err = n.pub.Publish(subject, data)
	}
	if err != nil {
		n.logger.Warn(context.Background(), "发布方言事件失败",
			logging.String("subject", subject), logging.Error(err))
	}
}

// Close 排空并关闭自建连接
func (n *Notifier) Close() error {
	if n.ownsConn && n.conn != nil {
		return n.conn.Drain()
	}
	return nil
}
