package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	fyneapp "fyne.io/fyne/v2/app"

	"vely-capture/clipboard"
	"vely-capture/config"
	"vely-capture/coordinator"
	"vely-capture/eventloop"
	"vely-capture/hotkey"
	"vely-capture/imagecache"
	"vely-capture/llm"
	"vely-capture/ocr"
	"vely-capture/overlay"
	"vely-capture/permission"
	"vely-capture/popup"
	"vely-capture/screenshot"
	"vely-capture/selection"
	"vely-capture/surface"
	"vely-capture/tray"
	"vely-capture/worker"
)

func main() {
	runOnce := flag.Bool("runonce", false, "Capture one region, print the text and exit (no tray icon)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.EnableFileLogging)
	setupPlatform()

	// Validate configuration
	if cfg.APIKey == "" {
		log.Fatalf("OPENROUTER_API_KEY is required. Please set it in your .env file.")
	}
	if cfg.Model == "" {
		log.Fatalf("MODEL is required. Please set it in your .env file.")
	}

	if err := clipboard.Init(); err != nil {
		log.Fatalf("Failed to initialize clipboard: %v", err)
	}

	log.Printf("Vely Capture initialized")
	log.Printf("Using model: %s", cfg.Model)
	log.Printf("Hotkey: %s", cfg.Hotkey)

	ocrClient := ocr.NewClient(llm.NewClient(llm.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		Providers: cfg.Providers,
	}))

	// The fyne app owns every window: the selection overlay and the result
	// popup. Run() must stay on the main goroutine.
	a := fyneapp.New()

	// loop and coord are captured by the UI callbacks before they exist;
	// both are assigned below, before any event can fire.
	var loop *eventloop.Loop
	var coord *coordinator.Coordinator

	coord = coordinator.New(coordinator.Deps{
		Permissions: permission.NewCache(permission.NativeProbe, cfg.PermissionTTL),
		Images:      imagecache.New(cfg.ImageCacheTTL, cfg.ImageCacheMaxBytes),
		Overlays:    overlay.NewPool(),
		Session:     selection.NewSession(),
		Rasterize:   screenshot.Capture,
		ScreenSize:  screenshot.DisplaySize,
		OCR:         ocrClient,
		Surface: surface.NewFactory(a, surface.Events{
			OnBegin: func(p selection.Point) {
				if err := coord.BeginSelection(p); err != nil {
					log.Printf("Main: begin selection rejected: %v", err)
				}
			},
			OnUpdate: func(p selection.Point) { coord.UpdateSelection(p) },
			OnEnd:    func() { loop.PostSelectionEnd() },
			OnCancel: func() { loop.PostSelectionCancel() },
		}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tooltip := fmt.Sprintf("Vely Capture - Press %s to capture", cfg.Hotkey)
	deliver := clipboard.Write
	if *runOnce {
		deliver = func(text string) error {
			if err := clipboard.Write(text); err != nil {
				log.Printf("Main: clipboard write failed: %v", err)
			}
			fmt.Printf("Extracted text: %s\n", text)
			cancel()
			a.Quit()
			return nil
		}
	}

	opts := eventloop.Options{
		Deadline:        cfg.OCRDeadline,
		CleanupInterval: cfg.CleanupInterval,
		OverlayIdle:     cfg.OverlayIdleTimeout,
		Popup:           popup.New(a),
		Deliver:         deliver,
		DefaultTooltip:  tooltip,
	}

	var trayIcon *tray.Icon
	if !*runOnce {
		trayIcon = tray.New(tray.Config{
			Title:     "Vely Capture",
			Tooltip:   tooltip,
			OnCapture: func() { loop.PostHotkey() },
			OnExit: func() {
				log.Printf("Main: exit requested from tray icon")
				cancel()
				a.Quit()
			},
		})
		opts.Tooltip = trayIcon.UpdateTooltip
	}

	loop = eventloop.New(coord, worker.New(2, ocrClient.Extract), opts)

	go func() {
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Main: event loop stopped: %v", err)
		}
	}()

	if trayIcon != nil {
		go trayIcon.Run()
		defer trayIcon.Quit()
	}

	hotkey.Listen(cfg.Hotkey, loop.PostHotkey)

	// Shut down cleanly on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Main: shutting down due to signal")
		cancel()
		a.Quit()
	}()

	if *runOnce {
		log.Printf("Main: running one capture (--runonce mode)")
		loop.PostHotkey()
	}

	a.Run()
}

func setupLogging(enableFileLogging bool) {
	if enableFileLogging {
		logFile, err := os.OpenFile("vely_capture_debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Printf("Failed to open log file: %v", err)
			return
		}

		// Write to both file and stdout
		multiWriter := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(multiWriter)
		log.Printf("File logging enabled: vely_capture_debug.log")
	} else {
		log.SetOutput(os.Stdout)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
