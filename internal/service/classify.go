package service

import "coinwatch/internal/dto"

// Classify maps one asset's current price against the user's threshold.
// An invested asset always classifies as invested regardless of price.
// Exact equality is neutral, never above or below.
func Classify(price, threshold float64, isInvested bool) dto.Classification {
	switch {
	case isInvested:
		return dto.ClassificationInvested
	case price > threshold:
		return dto.ClassificationAbove
	case price < threshold:
		return dto.ClassificationBelow
	default:
		return dto.ClassificationNeutral
	}
}
