package eventbus

import (
	"context"
	"strings"
	"time"

	"PTalk/logger"
	"PTalk/tools/errs"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsConfig struct {
	Servers       []string
	Name          string
	User          string
	Password      string
	SubjectPrefix string // events go to <prefix>.<type>
	JetStream     bool   // publish with acks and Nats-Msg-Id dedup
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NatsPublisher sends each event to subject <prefix>.<type>, over core NATS
// or JetStream.
type NatsPublisher struct {
	cfg NatsConfig
	nc  *nats.Conn
	js  nats.JetStreamContext
}

func NewNatsPublisher(cfg NatsConfig) (*NatsPublisher, error) {
	if len(cfg.Servers) == 0 {
		return nil, errs.ErrValidation.WrapMsg("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("[NATS] disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("[NATS] reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errs.WrapMsg(err, "nats connect", "servers", cfg.Servers)
	}
	p := &NatsPublisher{cfg: cfg, nc: nc}
	if cfg.JetStream {
		js, err := nc.JetStream(nats.PublishAsyncMaxPending(4096))
		if err != nil {
			nc.Close()
			return nil, errs.WrapMsg(err, "init jetstream")
		}
		p.js = js
	}
	return p, nil
}

// Subject is where events of type typ are published.
func Subject(prefix, typ string) string {
	if prefix == "" {
		return typ
	}
	return prefix + "." + typ
}

func (p *NatsPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return errs.WrapMsg(err, "marshal event", "type", ev.Type)
	}
	msg := nats.NewMsg(Subject(p.cfg.SubjectPrefix, ev.Type))
	msg.Data = data
	if ev.Key != "" {
		msg.Header.Set("Ptalk-Key", ev.Key)
	}
	if p.js == nil {
		if err := p.nc.PublishMsg(msg); err != nil {
			return errs.WrapMsg(err, "nats publish", "subject", msg.Subject)
		}
		return nil
	}
	msg.Header.Set(nats.MsgIdHdr, ev.ID)
	ack, err := p.js.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		return errs.WrapMsg(err, "jetstream publish", "subject", msg.Subject)
	}
	logger.Debug("[NATS] published", zap.String("stream", ack.Stream), zap.Uint64("seq", ack.Sequence))
	return nil
}

// Close drains pending publishes before closing the connection.
func (p *NatsPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
