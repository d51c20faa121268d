package middleware

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// sensitiveQueryKeys 访问日志中需要隐藏的查询参数
var sensitiveQueryKeys = []string{"token"}

// AccessLogger 同 gin.Logger 格式，但隐藏查询串里的令牌
func AccessLogger(out io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    out,
		Formatter: accessLogFormatter,
	})
}

func accessLogFormatter(p gin.LogFormatterParams) string {
	if p.Latency > time.Minute {
		p.Latency = p.Latency.Truncate(time.Second)
	}
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		p.TimeStamp.Format("2006/01/02 - 15:04:05"),
		p.StatusCode,
		p.Latency,
		p.ClientIP,
		p.Method,
		RedactQuery(p.Path),
		p.ErrorMessage,
	)
}

// RedactQuery 把 path?query 中的敏感参数值替换为 REDACTED
func RedactQuery(path string) string {
	base, rawQuery, found := strings.Cut(path, "?")
	if !found {
		return path
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return base + "?REDACTED"
	}
	changed := false
	for _, key := range sensitiveQueryKeys {
		if _, ok := query[key]; ok {
			query.Set(key, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return path
	}
	return base + "?" + query.Encode()
}
