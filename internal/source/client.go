package source

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// ClientOptions tune the retrying download client. Zero values take defaults.
type ClientOptions struct {
	Timeout  time.Duration
	RetryMax int
	WaitMin  time.Duration
	WaitMax  time.Duration
	Log      zerolog.Logger
}

// NewClient returns a retrying HTTP client that retries 429 and 5xx responses
// and connection errors with exponential backoff.
func NewClient(opt ClientOptions) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	if opt.Timeout > 0 {
		c.HTTPClient.Timeout = opt.Timeout
	}
	if opt.RetryMax > 0 {
		c.RetryMax = opt.RetryMax
	}
	if opt.WaitMin > 0 {
		c.RetryWaitMin = opt.WaitMin
	}
	if opt.WaitMax > 0 {
		c.RetryWaitMax = opt.WaitMax
	}
	c.Logger = leveledLogger{log: opt.Log}
	return c
}

// leveledLogger routes retryablehttp's key/value logging into zerolog.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.emit(l.log.Warn(), msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.emit(l.log.Warn(), msg, kv) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.emit(l.log.Debug(), msg, kv) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.emit(l.log.Debug(), msg, kv) }

func (l leveledLogger) emit(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case int:
			e = e.Int(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		case string:
			e = e.Str(key, v)
		case *http.Request:
			e = e.Str(key, v.Method+" "+v.URL.Redacted())
		default:
			e = e.Str(key, fmt.Sprint(v))
		}
	}
	e.Msg(msg)
}
