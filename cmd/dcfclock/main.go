// Command dcfclock runs a DCF77 radio clock on a Raspberry Pi: it decodes
// the receiver on a GPIO line, keeps the calendar, drives a four digit
// display and publishes clock events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/dcfclock/internal/button"
	"github.com/sweeney/dcfclock/internal/clock"
	"github.com/sweeney/dcfclock/internal/dcf"
	"github.com/sweeney/dcfclock/internal/display"
	"github.com/sweeney/dcfclock/internal/gpio"
	"github.com/sweeney/dcfclock/internal/mode"
	"github.com/sweeney/dcfclock/internal/mqtt"
	"github.com/sweeney/dcfclock/internal/status"
	"github.com/sweeney/dcfclock/internal/tasker"
	"github.com/sweeney/dcfclock/internal/timebase"
	"github.com/sweeney/dcfclock/internal/web"
)

// passInterval paces the scheduler loop.
const passInterval = 2 * time.Millisecond

type config struct {
	timebase       string
	chip           string
	pins           gpio.Pins
	activeLow      bool
	dcfActiveLow   bool
	debounce       int
	spiPort        string
	broker         string
	clientID       string
	httpAddr       string
	heartbeat      time.Duration
	normalTimeout  time.Duration
	settingTimeout time.Duration
	printState     bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.timebase, "timebase", timebase.Millis.Name, "Tick source: millis, 50hz or 100hz (mains input on -pin-mains)")
	flag.StringVar(&cfg.chip, "chip", gpio.DefaultChip, "GPIO chip")
	flag.IntVar(&cfg.pins.Mode, "pin-mode", gpio.DefaultPins.Mode, "BCM pin number for the Mode button")
	flag.IntVar(&cfg.pins.Up, "pin-up", gpio.DefaultPins.Up, "BCM pin number for the Up button")
	flag.IntVar(&cfg.pins.Down, "pin-down", gpio.DefaultPins.Down, "BCM pin number for the Down button")
	flag.IntVar(&cfg.pins.DCF, "pin-dcf", gpio.DefaultPins.DCF, "BCM pin number for the DCF77 receiver output")
	flag.IntVar(&cfg.pins.DCFPower, "pin-dcf-power", gpio.DefaultPins.DCFPower, "BCM pin number for the receiver power-on line (-1 if none)")
	flag.IntVar(&cfg.pins.Mains, "pin-mains", gpio.DefaultPins.Mains, "BCM pin number for the mains timebase input (-1 if none)")
	flag.BoolVar(&cfg.activeLow, "active-low", true, "Buttons pull their line low when pressed")
	flag.BoolVar(&cfg.dcfActiveLow, "dcf-active-low", false, "Receiver output is low during a carrier pulse")
	flag.IntVar(&cfg.debounce, "debounce", 1, "Scans a button change must persist")
	flag.StringVar(&cfg.spiPort, "spi", display.DefaultSPIConfig.Port, `SPI port of the display ("none" to run headless)`)
	flag.StringVar(&cfg.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	flag.StringVar(&cfg.clientID, "client-id", "dcfclock", "MQTT client ID")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.DurationVar(&cfg.normalTimeout, "timeout", 10*time.Second, "Inactivity timeout before the display returns to the time")
	flag.DurationVar(&cfg.settingTimeout, "setting-timeout", 70*time.Second, "Inactivity timeout that abandons setting the clock")
	flag.BoolVar(&cfg.printState, "print-state", false, "Print the button levels and exit")

	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	base, err := timebase.Parse(cfg.timebase)
	if err != nil {
		return err
	}

	buttons, err := gpio.NewRealReader(cfg.chip, cfg.pins, cfg.activeLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer buttons.Close()

	if cfg.printState {
		l, err := buttons.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		p := polarity(cfg.activeLow)
		fmt.Printf("mode: %s, up: %s, down: %s\n", p.State(l.Mode), p.State(l.Up), p.State(l.Down))
		return nil
	}

	now := timebase.Monotonic(time.Now())
	if base != timebase.Millis {
		if cfg.pins.Mains < 0 {
			return fmt.Errorf("timebase %s needs -pin-mains", base)
		}
		mains, err := gpio.NewMainsCounter(cfg.chip, cfg.pins.Mains)
		if err != nil {
			return fmt.Errorf("init mains timebase: %w", err)
		}
		defer mains.Close()
		now = mains.Now
	}

	hw := clock.Hardware{Now: now, Buttons: buttons, Sink: display.Discard}
	if cfg.pins.DCFPower >= 0 {
		pin, err := gpio.NewPowerPin(cfg.chip, cfg.pins.DCFPower)
		if err != nil {
			return fmt.Errorf("init receiver power: %w", err)
		}
		defer pin.Close()
		hw.Receiver = pin
	}
	if cfg.spiPort != "none" {
		spiCfg := display.DefaultSPIConfig
		spiCfg.Port = cfg.spiPort
		sink, err := display.NewSPISink(spiCfg)
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		defer sink.Close()
		hw.Sink = sink
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Timebase:    base.Name,
		Chip:        cfg.chip,
		ActiveLow:   cfg.activeLow,
		Display:     cfg.spiPort,
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		HTTPPort:    cfg.httpAddr,
	})

	var (
		publisher mqtt.Publisher
		conn      mqtt.ConnectionStatus
	)
	if cfg.broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.broker, cfg.clientID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, conn = p, p
	}

	opts := clock.DefaultOptions()
	opts.Base = base
	opts.ActiveLow = cfg.activeLow
	opts.Debounce = cfg.debounce
	opts.Timeouts.Normal = mode.Scans(cfg.normalTimeout)
	opts.Timeouts.Setting = mode.Scans(cfg.settingTimeout)

	var c *clock.Clock
	c = clock.New(opts, hw, hooks(publisher, tracker, func() {
		c.Report(tracker)
		if conn != nil {
			tracker.SetMQTTConnected(conn.IsConnected())
		}
	}))

	watcher, err := gpio.WatchEdges(cfg.chip, cfg.pins.DCF, cfg.dcfActiveLow, gpio.NewEdgeClock(now, base), c.Decoder.Edge)
	if err != nil {
		return fmt.Errorf("init dcf input: %w", err)
	}
	defer watcher.Close()

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: timebase=%s chip=%s display=%s broker=%s heartbeat=%v", base, cfg.chip, cfg.spiPort, cfg.broker, cfg.heartbeat)

	ticker := time.NewTicker(passInterval)
	defer ticker.Stop()

	var heartbeat <-chan time.Time
	if cfg.heartbeat > 0 {
		hb := time.NewTicker(cfg.heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(c.Scheduler, publisher, conn, tracker, time.Now, ticker.C, heartbeat, sigCh)
}

// hooks routes clock events to the tracker and the publisher. publisher
// may be nil.
func hooks(publisher mqtt.Publisher, tracker *status.Tracker, onSecond func()) clock.Hooks {
	publish := func(e mqtt.Event) {
		if publisher == nil {
			return
		}
		if err := publisher.Publish(e); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
	return clock.Hooks{
		OnResult: func(r dcf.Result) {
			ts := time.Now()
			radio := ""
			if r.Err == nil {
				radio = r.Time.String()
			}
			tracker.RecordResult(ts, radio, r.Err)
			publish(mqtt.ResultEvent(ts, r))
		},
		OnChange: func(ch mode.Change) {
			publish(mqtt.ChangeEvent(time.Now(), ch))
		},
		OnSecond: onSecond,
	}
}

// runLoop runs scheduler passes until a signal arrives. publisher and
// mqttStatus may be nil.
func runLoop(sched *tasker.Scheduler, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	sched.Setup()
	publishStatus(publisher, mqttStatus, tracker, now, "STARTUP", "")

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			publishStatus(publisher, mqttStatus, tracker, now, "SHUTDOWN", signalName(s))
			return nil

		case <-heartbeat:
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v clock=%s synced=%d rejected=%d",
				snap.Uptime().Truncate(time.Second), snap.Clock, snap.DCF.Synced, snap.DCF.Rejected)
			publishStatus(publisher, mqttStatus, tracker, now, "HEARTBEAT", "")

		case <-tick:
			sched.Pass()
		}
	}
}

// publishStatus sends a system event carrying a status snapshot. Only
// heartbeats are not retained.
func publishStatus(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, event, reason string) {
	if publisher == nil {
		return
	}
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	snap := tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  now(),
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	} else if event != "HEARTBEAT" {
		log.Printf("published %s event", event)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func polarity(activeLow bool) button.Polarity {
	if activeLow {
		return button.ActiveLow
	}
	return button.ActiveHigh
}
