package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sage-x-project/relay/config"
	"github.com/sage-x-project/relay/internal/logger"
	"github.com/sage-x-project/relay/internal/metrics"
	"github.com/sage-x-project/relay/pkg/realtime/connection"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
	"github.com/sage-x-project/relay/pkg/realtime/serializer"
	"github.com/sage-x-project/relay/pkg/realtime/transport"
)

var (
	demoChannel     string
	demoMessages    int
	demoConfigFile  string
	demoMetricsAddr string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run connect/attach/publish/subscribe against an in-memory loopback peer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo()
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoChannel, "channel", "demo", "channel name to attach and publish on")
	demoCmd.Flags().IntVar(&demoMessages, "messages", 3, "number of messages to publish")
	demoCmd.Flags().StringVar(&demoConfigFile, "config", "", "optional client config file (YAML or JSON)")
	demoCmd.Flags().StringVar(&demoMetricsAddr, "metrics-addr", "", "if set, serve /metrics on this address while the demo runs")
	rootCmd.AddCommand(demoCmd)
}

func runDemo() error {
	opts := connection.Options{URL: "loopback://demo"}
	if demoConfigFile != "" {
		cfg, err := config.LoadFromFile(demoConfigFile)
		if err != nil {
			return err
		}
		config.SubstituteEnvVarsInConfig(cfg)
		opts = connection.OptionsFromConfig(cfg)
		opts.URL = "loopback://demo"
	}
	opts.Dialer = loopbackDialer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if demoMetricsAddr != "" {
		g.Go(func() error { return metrics.StartServer(demoMetricsAddr) })
	}

	conn := connection.New(opts)
	defer conn.Shutdown()

	conn.OnStateChange(func(s connection.State, reason *proto.ErrorInfo) {
		logger.Info("connection", logger.String("state", s.String()))
	})

	if err := conn.Connect(gctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	fmt.Printf("connected, connection_id=%s\n", conn.ID())

	ch := conn.Channels().Get(demoChannel)
	ch.Subscribe(func(m *proto.Message) {
		fmt.Printf("received %q on %s: %v\n", m.Name, demoChannel, m.Data)
	})
	if err := ch.Attach(gctx); err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	for i := 0; i < demoMessages; i++ {
		data := map[string]interface{}{"seq": fmt.Sprintf("%d", i)}
		if err := ch.Publish(gctx, "greeting", data); err != nil {
			return fmt.Errorf("publish %d: %w", i, err)
		}
		fmt.Printf("published message %d, acked\n", i)
	}

	if err := conn.Close(gctx); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	fmt.Println("closed")
	cancel()
	return nil
}

// loopbackPeer is a minimal in-process broker: it answers Connect with
// Connected, Attach with Attached, echoes each published Message back
// with an Ack, and answers Close with Closed.
type loopbackPeer struct {
	serial serializer.Serializer
	fake   *transport.Fake
	connID string
}

func loopbackDialer() transport.Dialer {
	return func(_ context.Context, _ string, handlers transport.Handlers) (transport.Transport, error) {
		peer := &loopbackPeer{serial: serializer.NewJSON(), connID: "loopback-conn"}
		peer.fake = transport.NewFake(handlers)
		lt := &loopbackTransport{peer: peer}
		if handlers.OnOpen != nil {
			handlers.OnOpen()
		}
		return lt, nil
	}
}

type loopbackTransport struct {
	peer *loopbackPeer
}

func (t *loopbackTransport) Send(ctx context.Context, frame []byte, isText bool) error {
	pm, err := t.peer.serial.Decode(frame)
	if err != nil {
		return err
	}
	reply := t.peer.reply(pm)
	if reply == nil {
		return nil
	}
	data, err := t.peer.serial.Encode(reply)
	if err != nil {
		return err
	}
	// Deliver asynchronously, as a real peer would.
	go t.peer.fake.DeliverText(data)
	if echo := t.peer.echo(pm); echo != nil {
		data, err := t.peer.serial.Encode(echo)
		if err == nil {
			go t.peer.fake.DeliverText(data)
		}
	}
	return nil
}

func (t *loopbackTransport) Destroy() { t.peer.fake.Destroy() }

func (p *loopbackPeer) reply(pm *proto.ProtocolMessage) *proto.ProtocolMessage {
	switch pm.Action {
	case proto.ActionConnect:
		return &proto.ProtocolMessage{
			Action:       proto.ActionConnected,
			ConnectionID: p.connID,
			ConnectionDetails: &proto.ConnectionDetails{
				ConnectionKey: "loopback-key",
				ServerID:      "loopback",
			},
		}
	case proto.ActionAttach:
		return &proto.ProtocolMessage{Action: proto.ActionAttached, Channel: pm.Channel}
	case proto.ActionDetach:
		return &proto.ProtocolMessage{Action: proto.ActionDetached, Channel: pm.Channel}
	case proto.ActionMessage:
		return &proto.ProtocolMessage{Action: proto.ActionAck, MsgSerial: pm.MsgSerial, Count: 1}
	case proto.ActionClose:
		return &proto.ProtocolMessage{Action: proto.ActionClosed}
	case proto.ActionHeartbeat:
		return &proto.ProtocolMessage{Action: proto.ActionHeartbeat}
	}
	return nil
}

func (p *loopbackPeer) echo(pm *proto.ProtocolMessage) *proto.ProtocolMessage {
	if pm.Action != proto.ActionMessage {
		return nil
	}
	return &proto.ProtocolMessage{
		Action:       proto.ActionMessage,
		Channel:      pm.Channel,
		ID:           fmt.Sprintf("echo-%d", pm.MsgSerial),
		ConnectionID: p.connID,
		Timestamp:    time.Now(),
		Messages:     pm.Messages,
	}
}
