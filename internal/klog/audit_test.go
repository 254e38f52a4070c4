package klog

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
)

func TestAudit(t *testing.T) {
	data := &sinkData{}
	logger := logr.New(&capturingSink{data: data})

	fields := map[string]string{
		"domainUID": "domain1",
		"server":    "admin-server",
	}

	Audit(logger, "fiber-preempted", fields)

	assert.Equal(t, "kernel audit event", data.msg)

	kvMap := make(map[string]interface{})
	for i := 0; i < len(data.keysAndValues); i += 2 {
		k, ok := data.keysAndValues[i].(string)
		if ok && i+1 < len(data.keysAndValues) {
			kvMap[k] = data.keysAndValues[i+1]
		}
	}

	assert.Equal(t, true, kvMap["audit"])
	assert.Equal(t, "fiber-preempted", kvMap["event_type"])
	assert.Equal(t, "domain1", kvMap["domainUID"])
	assert.Equal(t, "admin-server", kvMap["server"])
}

type sinkData struct {
	msg           string
	keysAndValues []interface{}
}

type capturingSink struct {
	data     *sinkData
	localKVs []interface{}
}

func (s *capturingSink) Init(info logr.RuntimeInfo) {}
func (s *capturingSink) Enabled(level int) bool      { return true }
func (s *capturingSink) Info(level int, msg string, keysAndValues ...interface{}) {
	s.data.msg = msg
	allKVs := append([]interface{}{}, s.localKVs...)
	allKVs = append(allKVs, keysAndValues...)
	s.data.keysAndValues = allKVs
}
func (s *capturingSink) Error(err error, msg string, keysAndValues ...interface{}) {
	s.data.msg = msg
	allKVs := append([]interface{}{}, s.localKVs...)
	allKVs = append(allKVs, keysAndValues...)
	s.data.keysAndValues = allKVs
}
func (s *capturingSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &capturingSink{data: s.data, localKVs: append(s.localKVs, keysAndValues...)}
}
func (s *capturingSink) WithName(name string) logr.LogSink {
	return s
}
