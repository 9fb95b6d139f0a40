package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var framesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "baerhub_chat_frames_received_total",
	Help: "Chat frames received, by frame type.",
}, []string{"type"})
