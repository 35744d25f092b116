package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/mycophonic/raop"
	"github.com/mycophonic/raop/aescrypt"
	"github.com/mycophonic/raop/config"
	"github.com/mycophonic/raop/core"
	"github.com/mycophonic/raop/metrics"
	"github.com/mycophonic/raop/store"
)

var errKeyMaterial = errors.New("raopd: --encrypted-key, --iv, --shared-secret and --key-message must all decode as hex")

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Receive one AirPlay audio session and write decoded PCM to a WAV file",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Usage: "optional .env file to seed configuration from"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "out.wav", Usage: "WAV output path"},
			&cli.StringFlag{Name: "codec", Value: "pcm", Usage: "advertised codec: alac, aac, aac-eld, pcm"},
			&cli.StringFlag{Name: "encrypted-key", Usage: "hex-encoded encrypted AES content key"},
			&cli.StringFlag{Name: "iv", Usage: "hex-encoded 16-byte CBC IV"},
			&cli.StringFlag{Name: "shared-secret", Usage: "hex-encoded 32-byte ECDH shared secret"},
			&cli.StringFlag{Name: "key-message", Usage: "hex-encoded key-unwrap message blob"},
			&cli.IntFlag{Name: "frames-per-packet", Usage: "samples-per-frame hint; 0 uses the codec default"},
			&cli.IntFlag{Name: "compression-type", Usage: "fallback format selector when --codec is unrecognized"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "if set, serve Prometheus metrics at this address (e.g. :9090)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	if envFile := cmd.String("env-file"); envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("raopd: loading env file: %w", err)
		}
	}

	cfg := config.Load()

	sess, err := buildSession(cmd, cfg)
	if err != nil {
		return err
	}

	sessions := store.New()
	sessions.Upsert(sess)

	controlConn, dataConn, err := openSockets(cfg)
	if err != nil {
		return err
	}
	defer controlConn.Close()
	defer dataConn.Close()

	out := newWAVSink(cmd.String("output"))

	logger := newLogger(cmd.Bool("debug"))

	eng := core.New(core.Options{
		Session:     sessions.Get(sess.ID),
		Unwrap:      aescrypt.DefaultUnwrapper{},
		ControlConn: controlConn,
		DataConn:    dataConn,
		Sink:        out,
		Logger:      logger,
		DumpDir:     cfg.DumpPath,
	})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr := cmd.String("metrics-addr"); addr != "" {
		stopMetrics := serveMetrics(addr, eng, logger)
		defer stopMetrics()
	}

	logger.Info("raopd: session started",
		"session_id", sess.ID,
		"control_addr", controlConn.LocalAddr(),
		"data_addr", dataConn.LocalAddr(),
	)

	eng.Run(runCtx)

	logger.Info("raopd: session ended", "session_id", sess.ID)

	if err := out.Close(); err != nil {
		return fmt.Errorf("raopd: writing output: %w", err)
	}

	return nil
}

func buildSession(cmd *cli.Command, cfg *config.Config) (*raop.Session, error) {
	encryptedKey, err1 := hex.DecodeString(cmd.String("encrypted-key"))

	var iv [16]byte

	ivBytes, err2 := hex.DecodeString(cmd.String("iv"))
	if err2 == nil {
		copy(iv[:], ivBytes)
	}

	var sharedSecret [32]byte

	secretBytes, err3 := hex.DecodeString(cmd.String("shared-secret"))
	if err3 == nil {
		copy(sharedSecret[:], secretBytes)
	}

	keyMessage, err4 := hex.DecodeString(cmd.String("key-message"))

	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, errKeyMaterial
	}

	return &raop.Session{
		ID:              cfg.SessionID,
		EncryptedKey:    encryptedKey,
		IV:              iv,
		SharedSecret:    sharedSecret,
		KeyMessage:      keyMessage,
		CodecFormat:     parseCodecFormat(cmd.String("codec")),
		FramesPerPacket: cmd.Int("frames-per-packet"),
		CompressionType: cmd.Int("compression-type"),
		IsMirroring:     cfg.IsMirroring,
	}, nil
}

func parseCodecFormat(name string) raop.CodecFormat {
	switch name {
	case "alac":
		return raop.FormatALAC
	case "aac":
		return raop.FormatAAC
	case "aac-eld":
		return raop.FormatAACELD
	case "pcm":
		return raop.FormatPCM
	default:
		return raop.FormatUnknown
	}
}

func openSockets(cfg *config.Config) (control, data *net.UDPConn, err error) {
	control, err = net.ListenUDP("udp", &net.UDPAddr{Port: cfg.ControlPort})
	if err != nil {
		return nil, nil, fmt.Errorf("raopd: opening control socket: %w", err)
	}

	data, err = net.ListenUDP("udp", &net.UDPAddr{Port: cfg.DataPort})
	if err != nil {
		control.Close()
		return nil, nil, fmt.Errorf("raopd: opening data socket: %w", err)
	}

	return control, data, nil
}

// serveMetrics starts a background HTTP server exposing the session's
// Prometheus counters and returns a function that shuts it down.
func serveMetrics(addr string, eng *core.Core, logger *slog.Logger) func() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(eng.Metrics, eng, time.Now()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("raopd: metrics server exited", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}
}
