package shared

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// initializes logger, starts health & metrics endpoint, inits&returns pointer to a started ShutdownOrchestrator
func InitCommon(moduleName string, logConfig LogConfig) *ShutdownOrchestrator {
	logger(moduleName, logConfig) // set logger and print start msg
	healthEndpoint(moduleName)    // start health endpoint and print msg

	// start shutdown orchestrator
	var shutdownOrchestrator ShutdownOrchestrator
	shutdownOrchestrator.Start()
	return &shutdownOrchestrator
}

func logger(moduleName string, c LogConfig) {
	log.SetFormatter(NewLogFormatter(c.Format))
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.AddHook(prefixHook(moduleName))
	log.Info("Started")
}

func NewLogFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &log.JSONFormatter{}
	case "text":
		return &log.TextFormatter{}
	}
	return &prefixed.TextFormatter{}
}

// prefixHook tags every entry with the module name, the prefixed formatter prints it in front of the message.
type prefixHook string

func (h prefixHook) Levels() []log.Level {
	return log.AllLevels
}

func (h prefixHook) Fire(entry *log.Entry) error {
	if _, ok := entry.Data["prefix"]; !ok {
		entry.Data["prefix"] = string(h)
	}
	return nil
}

func healthEndpoint(moduleName string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(moduleName + " is OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		port := os.Getenv("HEALTH_PORT")
		if port != "" { // found HEALTH_PORT. will only try it.
			log.Infof("Health endpoint (http://localhost:%v/healthz) listening on :%v", port, port)
			if err := http.ListenAndServe(":"+port, mux); err != nil {
				log.WithError(err).Error("Error starting health endpoint")
			}
			return
		}

		// will try ports in range [HealthEndpointFirstPort, HealthEndpointLastPort] one by one
		for port := HealthEndpointFirstPort; port < HealthEndpointLastPort; port++ {
			log.Infof("Health endpoint (http://localhost:%v/healthz) listening on :%v", port, port)
			if err := http.ListenAndServe(":"+strconv.Itoa(port), mux); err != nil {
				log.WithError(err).Warn("Error starting health endpoint, trying next port")
				continue
			}
			return
		}
		log.Errorf("Could not find an empty port for health endpoint for %v in range [%v,%v]", moduleName, HealthEndpointFirstPort, HealthEndpointLastPort)
	}()
}
