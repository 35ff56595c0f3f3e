package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"evcam-stream-go/internal/batch"
	"evcam-stream-go/internal/bias"
	"evcam-stream-go/internal/camera"
	"evcam-stream-go/internal/camerainfo"
	"evcam-stream-go/internal/config"
	"evcam-stream-go/internal/encode"
	"evcam-stream-go/internal/output"
	"evcam-stream-go/internal/publish"
	"evcam-stream-go/internal/server"
	"evcam-stream-go/internal/stats"
)

func main() {
	var (
		port            = flag.Int("port", 8888, "HTTP port for websocket transport and control plane")
		encoding        = flag.String("encoding", "compact", "Batch wire encoding: verbose or compact")
		cameraInfoURL   = flag.String("camerainfo-url", "", "Calibration record URL (stamps the frame id)")
		frameID         = flag.String("frame-id", "", "Frame id override (default: last 4 digits of serial)")
		timeThreshold   = flag.Duration("message-time-threshold", 100*time.Microsecond, "Event-time span that completes a message")
		maxEventRate    = flag.Float64("max-event-rate", 50e6, "Expected peak event rate (events/sec), sizes buffers")
		sendQueueSize   = flag.Int("send-queue-size", 1000, "Outgoing publish queue depth")
		multithreaded   = flag.Bool("use-multithreading", false, "Let the SDK deliver from multiple threads")
		statsInterval   = flag.Duration("statistics-print-interval", 1*time.Second, "Interval between statistics log lines")
		biasFile        = flag.String("bias-file", "", "Bias file path for load at startup and save on request")
		endpoint        = flag.String("endpoint", "tcp://localhost:31001", "Remote camera ZMQ event endpoint")
		controlURL      = flag.String("control-url", "", "Remote camera HTTP control base URL")
		publishEndpoint = flag.String("publish-endpoint", "", "ZMQ XPUB bind endpoint for batch output (empty disables)")
		debug           = flag.Bool("debug", false, "Run with the simulated camera")
		debugEventRate  = flag.Float64("debug-event-rate", 1e6, "Simulated event rate (events/sec)")
		rawLogEnabled   = flag.Bool("raw-log", false, "Record published batches to disk")
		rawLogDir       = flag.String("raw-log-dir", "rawlog", "Directory for batch raw logs")
	)
	flag.Parse()

	cfg := config.AppConfig{
		Port:              *port,
		Encoding:          *encoding,
		CameraInfoURL:     *cameraInfoURL,
		FrameID:           *frameID,
		TimeThreshold:     *timeThreshold,
		MaxEventRate:      *maxEventRate,
		SendQueueSize:     *sendQueueSize,
		UseMultithreading: *multithreaded,
		StatsInterval:     *statsInterval,
		BiasFile:          *biasFile,
		Endpoint:          *endpoint,
		ControlURL:        *controlURL,
		PublishEndpoint:   *publishEndpoint,
		Debug:             *debug,
		DebugEventRate:    *debugEventRate,
		RawLogEnabled:     *rawLogEnabled,
		RawLogDir:         *rawLogDir,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc, err := encode.ByName(cfg.Encoding)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var cam camera.Camera
	if cfg.Debug {
		cam = camera.NewSimulator(640, 480, cfg.DebugEventRate)
	} else {
		if cfg.ControlURL == "" {
			log.Fatalf("missing -control-url for remote camera (or run with -debug)")
		}
		cam = camera.NewRemote(cfg.Endpoint, cfg.ControlURL, 100)
	}

	if err := cam.Initialize(camera.Options{
		UseMultithreading: cfg.UseMultithreading,
		StatsInterval:     cfg.StatsInterval,
		BiasFile:          cfg.BiasFile,
	}); err != nil {
		log.Fatalf("driver initialization failed: %v", err)
	}

	info, err := camerainfo.Load(ctx, cfg.CameraInfoURL)
	if err != nil {
		log.Printf("camera info lookup failed: %v", err)
	}
	if cfg.FrameID == "" {
		cfg.FrameID = info.FrameID
	}
	if cfg.FrameID == "" {
		// default frame id to the last 4 digits of the serial number
		sn := cam.SerialNumber()
		if len(sn) > 4 {
			sn = sn[len(sn)-4:]
		}
		cfg.FrameID = sn
	}
	log.Printf("using frame id: %s", cfg.FrameID)

	sessionID := uuid.NewString()
	counters := stats.NewCounters()
	go counters.RunPrinter(ctx, cfg.StatsInterval)

	biasCtrl := bias.NewController(cam)
	var biasCfg bias.Config
	biasCtrl.Configure(&biasCfg, -1)

	var acc *batch.Accumulator
	statusFn := func() map[string]any {
		payload := map[string]any{
			"session_id": sessionID,
			"frame_id":   cfg.FrameID,
			"serial":     cam.SerialNumber(),
			"width":      cam.Width(),
			"height":     cam.Height(),
			"encoding":   cfg.Encoding,
			"metrics":    counters.Snapshot(),
			"biases":     biasCtrl.Baseline(),
		}
		if acc != nil {
			payload["next_seq"] = acc.NextSeq()
		}
		if remote, ok := cam.(*camera.Remote); ok {
			probeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			payload["camera"] = remote.Health(probeCtx)
			cancel()
		}
		return payload
	}

	srv := server.New(cfg, biasCtrl, statusFn)

	sinks := []batch.Sink{srv}
	if cfg.PublishEndpoint != "" {
		zmqPub, err := publish.NewZMQPublisher(cfg.PublishEndpoint, cfg.SendQueueSize)
		if err != nil {
			log.Fatalf("zmq publisher bind failed: %v", err)
		}
		defer zmqPub.Close()
		sinks = append(sinks, zmqPub)
	}
	var sink batch.Sink = publish.NewTee(sinks...)
	if cfg.RawLogEnabled {
		writer, err := output.NewRawLogWriter(cfg.RawLogDir, "batches")
		if err != nil {
			log.Fatalf("failed to start raw log: %v", err)
		}
		log.Printf("recording published batches to %s", writer.Path())
		go func() {
			<-ctx.Done()
			if err := writer.Close(); err != nil {
				log.Printf("raw log close failed: %v", err)
			}
		}()
		sink = publish.NewRecorder(sink, writer)
	}

	acc = batch.NewAccumulator(enc, sink, counters, cfg.FrameID,
		cam.Width(), cam.Height(), cfg.TimeThreshold, cfg.ReserveSize())

	cam.Start(ctx, acc.OnEvents)
	log.Printf("session %s: %s camera %s (%dx%d), %s encoding, threshold %s",
		sessionID, cameraKind(cfg.Debug), cam.SerialNumber(), cam.Width(), cam.Height(),
		cfg.Encoding, cfg.TimeThreshold)

	if err := srv.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
	}
	// in-flight accumulation state is discarded at teardown
	cam.Stop()
}

func cameraKind(debug bool) string {
	if debug {
		return "simulated"
	}
	return "remote"
}
