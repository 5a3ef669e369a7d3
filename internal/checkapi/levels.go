package checkapi

// CheckLevels classifies value against upper warn/crit levels. Nil levels
// never alert.
func CheckLevels(value float64, levels *Levels) State {
	switch {
	case levels == nil:
		return OK
	case value >= levels.Crit:
		return Crit
	case value >= levels.Warn:
		return Warn
	default:
		return OK
	}
}

// Scale returns levels multiplied by factor.
func (l *Levels) Scale(factor float64) *Levels {
	if l == nil {
		return nil
	}
	return &Levels{Warn: l.Warn * factor, Crit: l.Crit * factor}
}
