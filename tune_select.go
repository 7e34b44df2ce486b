package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/antigloss/go/logger"
	d2r2log "github.com/d2r2/go-logger"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/aluedtke7/tune_select/config"
	"github.com/aluedtke7/tune_select/display"
	"github.com/aluedtke7/tune_select/emulator"
	"github.com/aluedtke7/tune_select/lcd"
	"github.com/aluedtke7/tune_select/pins"
)

var (
	disp      display.Display
	ipAddress string
	homePath  string
	lg        = d2r2log.NewPackageLogger("main", d2r2log.InfoLevel)
)

const (
	DATE_TIME_FORMAT = "2006-01-02 15:04:05"
)

type remoteSelect struct {
	Index int `json:"index"`
}

// helper for error checking
func check(err error) {
	if err != nil {
		lg.Error(errors.Unwrap(fmt.Errorf("wrapped error: %w", err)).Error())
	}
}

// logs the ipv4 addresses found and stores the first non localhost addresses in variable 'ipAddress'
func logNetworkInterfaces() {
	interfaces, err := net.Interfaces()
	if err != nil {
		logger.Error(err.Error())
		return
	}
	reg := regexp.MustCompilePOSIX("^((25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\\.){3}(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])")
	for _, i := range interfaces {
		addresses, err := i.Addrs()
		if err != nil {
			logger.Warn(err.Error())
			continue
		}
		for _, v := range addresses {
			ipv4 := v.String()
			if reg.MatchString(ipv4) {
				logger.Info(ipv4)
				if !strings.HasPrefix(ipv4, "127.0.") {
					ipAddress, _, _ = strings.Cut(ipv4, "/")
				}
			}
		}
	}
}

func getHomeDir() string {
	usr, err := user.Current()
	if err != nil {
		return "~/"
	}
	return usr.HomeDir
}

// statusHandler serves the current tune as plain text on "/", as JSON on
// "/info" and accepts remote selections on "/select".
func statusHandler(sel *selector, remote chan<- int) http.Handler {
	mux := http.NewServeMux()
	// browser page plain text
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		st := sel.snapshot()
		_, _ = fmt.Fprintf(w, "Tune Select                       %s\n"+
			"-----------------------------------------------------\n"+
			"Tune:   %d %s\n"+
			"Source: %s\n",
			st.Update, st.Index+1, st.Tune, st.Source,
		)
	})
	// data in JSON format
	mux.HandleFunc("/info", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		j, _ := json.MarshalIndent(sel.snapshot(), "", "  ")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(j)
	})
	// POST handler for selecting the next tune
	mux.HandleFunc("/select", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rs := &remoteSelect{}
		if err := json.NewDecoder(req.Body).Decode(rs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if rs.Index < 0 || rs.Index >= len(sel.tunes) {
			http.Error(w, fmt.Sprintf("index must be between 0 and %d", len(sel.tunes)-1), http.StatusBadRequest)
			return
		}
		select {
		case remote <- rs.Index:
		default:
			http.Error(w, "selection pending", http.StatusConflict)
			return
		}
		lg.Infof("remote selection of tune %d", rs.Index)
		j, _ := json.MarshalIndent(rs, "", "  ")
		_, _ = w.Write(j)
	})
	return mux
}

// openInputs returns the button and motion sensor pins. In dry mode both are
// simulated and stay inactive.
func openInputs(cfg config.Input, dry bool) (button, motion gpio.PinIO, err error) {
	if dry {
		return &gpiotest.Pin{N: cfg.Button, L: gpio.High}, &gpiotest.Pin{N: cfg.Motion, L: gpio.Low}, nil
	}
	button = gpioreg.ByName(cfg.Button)
	if button == nil {
		return nil, nil, fmt.Errorf("failed to find %s", cfg.Button)
	}
	if err = button.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, nil, err
	}
	motion = gpioreg.ByName(cfg.Motion)
	if motion == nil {
		return nil, nil, fmt.Errorf("failed to find %s", cfg.Motion)
	}
	if err = motion.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, nil, err
	}
	return button, motion, nil
}

func main() {
	defer func() {
		_ = d2r2log.FinalizeLogger()
	}()

	homePath = filepath.Join(getHomeDir(), ".tune_select")
	_ = os.MkdirAll(homePath, os.ModePerm)
	logCfg := logger.Config{
		LogDir:            filepath.Join(homePath, "log"),
		LogFileMaxSize:    2,
		LogFileMaxNum:     30,
		LogFileNumToDel:   3,
		LogDest:           logger.LogDestBoth,
		LogFilenamePrefix: "tsel",
		LogSymlinkPrefix:  "tsel",
		Flag:              logger.ControlFlagLogDate | logger.ControlFlagLogFuncName,
	}
	_ = logger.Init(&logCfg)
	defer func() {
		if err := recover(); err != nil {
			logger.Error("Panic occurred:", err)
		}
	}()
	logger.Info("Starting Tune Select...")

	// Commandline parameters
	configPtr := flag.String("config", filepath.Join(homePath, "tune_select.ini"), "path of the ini config file")
	throttlePtr := flag.Int("throttle", -1, "LCD write throttle, overrides the config when >= 0")
	dryPtr := flag.Bool("dry", false, "run against an emulated display without GPIO")
	portPtr := flag.Int("port", 8080, "port of the status http server")
	debugPtr := flag.Bool("debug", false, "log every LCD transfer")
	flag.Parse()

	if *debugPtr {
		_ = d2r2log.ChangePackageLogLevel("lcd", d2r2log.DebugLevel)
		_ = d2r2log.ChangePackageLogLevel("pins", d2r2log.DebugLevel)
	}

	cfg := config.Default()
	if _, err := os.Stat(*configPtr); err == nil {
		if cfg, err = config.Load(*configPtr); err != nil {
			logger.Errorf("Couldn't load config: %s", err)
			os.Exit(1)
		}
	} else {
		logger.Infof("No config at %s, using defaults", *configPtr)
	}
	if *throttlePtr >= 0 {
		cfg.LCD.Throttle = *throttlePtr
	}

	opts := &lcd.Opts{
		Settle:    cfg.LCD.Settle,
		Stabilize: cfg.LCD.Stabilize,
		Wait:      lcd.Sleep,
	}
	if cfg.LCD.Spin {
		opts.Wait = lcd.Spin
	}

	var port pins.Port
	var emu *emulator.Controller
	if *dryPtr {
		emu = emulator.New(pins.DefaultWiring)
		port = emu
		opts.Wait = lcd.NoWait
	} else {
		gp, err := pins.Open(pins.DefaultWiring, cfg.Pins)
		if err != nil {
			logger.Errorf("Couldn't initialize display: %s", err)
			os.Exit(1)
		}
		port = gp
	}
	disp = lcd.New(port, cfg.LCD.Throttle, opts)
	defer disp.Close()

	button, motion, err := openInputs(cfg.Input, *dryPtr)
	if err != nil {
		logger.Errorf("Couldn't open inputs: %s", err)
		os.Exit(1)
	}

	sel := newSelector(disp, cfg.Tunes)

	// load token from environment
	token, _ := os.LookupEnv("INFLUX_TS_TOKEN")
	url, _ := os.LookupEnv("INFLUX_SRV_URL")
	if url != "" {
		logger.Infof("Influx srv url: %s", url)
		client := influxdb2.NewClient(url, token)
		defer client.Close()
		sel.influx = client.WriteAPIBlocking(cfg.Influx.Org, cfg.Influx.Bucket)
		sel.measurement = cfg.Influx.Measurement
	}

	ipAddress = ""
	logNetworkInterfaces()
	logger.Infof("IP address: %s", ipAddress)
	sel.start(ipAddress)

	remote := make(chan int, 1)
	go func() {
		addr := fmt.Sprintf(":%d", *portPtr)
		check(http.ListenAndServe(addr, statusHandler(sel, remote)))
	}()

	var ctrlChan = make(chan os.Signal, 1)
	signal.Notify(ctrlChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Input.PollRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctrlChan:
			logger.Info("Ctrl+C received... Exiting")
			disp.Clear()
			return
		case i := <-remote:
			check(sel.choose(i))
			sel.show(triggerRemote)
		case <-ticker.C:
			t := sel.poll(button.Read() == gpio.Low, motion.Read() == gpio.High)
			if t == noTrigger {
				continue
			}
			sel.show(t)
			lg.Infof("%s: %s", t, sel.snapshot().Tune)
			time.Sleep(cfg.Input.Debounce)
		}
		if emu != nil {
			disp.Flush()
			logger.Infof("screen:\n%s", emu.Screen())
		}
	}
}
