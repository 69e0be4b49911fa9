package stream

import "math"

func math32FromBits(v uint32) float32 { return math.Float32frombits(v) }

func math32ToBits(v float32) uint32 { return math.Float32bits(v) }
