package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CodecEncodeErrors counts encode failures by error kind.
	CodecEncodeErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "encode_errors_total",
			Help:      "Total number of codec encode failures, by error kind",
		},
		[]string{"kind"},
	)

	// CodecDecodeErrors counts decode failures by error kind.
	CodecDecodeErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "decode_errors_total",
			Help:      "Total number of codec decode failures, by error kind",
		},
		[]string{"kind"},
	)

	// CipherOperations counts cipher encrypt/decrypt operations.
	CipherOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "cipher_operations_total",
			Help:      "Total number of cipher encrypt/decrypt operations",
		},
		[]string{"operation"}, // encrypt, decrypt
	)
)
