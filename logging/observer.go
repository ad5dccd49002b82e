package logging

import "github.com/sirupsen/logrus"

// NormalizeObserver reports canonicalization diagnostics as debug logs.
type NormalizeObserver struct {
	logger logrus.FieldLogger
}

// NewNormalizeObserver creates an observer logging to l.
func NewNormalizeObserver(l logrus.FieldLogger) *NormalizeObserver {
	return &NormalizeObserver{logger: l.WithField("component", "normalize")}
}

func (o *NormalizeObserver) TypoCorrected(from, to string) {
	o.logger.WithFields(logrus.Fields{"from": from, "to": to}).Debug("Corrected identity typo")
}

func (o *NormalizeObserver) UnknownSuffix(value, leftover string) {
	o.logger.WithFields(logrus.Fields{"value": value, "leftover": leftover}).Debug("Dropped unknown channel suffix")
}

func (o *NormalizeObserver) IdentityFromName(name, identity string) {
	o.logger.WithFields(logrus.Fields{"name": name, "identity": identity}).Debug("Derived identity from display name")
}
