package preset

import "github.com/cwbudde/sixteen/looper"

type voicing struct {
	delayMs, feedback, mix, gainDB       float32
	modDepth, modSpeed, filter, noise    float32
	overdub, erode                       float32
	reverse, halfSpeed, authentic, limit bool
}

func (v voicing) preset(name string) Preset {
	settings := []Setting{
		{ID: looper.ParamDelayTime, Value: v.delayMs},
		{ID: looper.ParamFeedback, Value: v.feedback},
		{ID: looper.ParamMix, Value: v.mix},
		{ID: looper.ParamOutputGain, Value: v.gainDB},
		{ID: looper.ParamModDepth, Value: v.modDepth},
		{ID: looper.ParamModSpeed, Value: v.modSpeed},
		{ID: looper.ParamFilter, Value: v.filter},
		{ID: looper.ParamNoise, Value: v.noise},
		{ID: looper.ParamOverdubLevel, Value: v.overdub},
		{ID: looper.ParamErodeAmount, Value: v.erode},
		{ID: looper.ParamReverse, Value: flag(v.reverse)},
		{ID: looper.ParamHalfSpeed, Value: flag(v.halfSpeed)},
		{ID: looper.ParamAuthentic, Value: flag(v.authentic)},
		{ID: looper.ParamLimiter, Value: flag(v.limit)},
	}

	return Preset{Name: name, Settings: append(settings, transportOff...)}
}

func flag(on bool) float32 {
	if on {
		return 1
	}
	return 0
}

// Factory returns the built-in presets in program order.
func Factory() []Preset {
	return []Preset{
		voicing{
			delayMs: 9000, feedback: 1.05, mix: 0.7, gainDB: -3,
			modDepth: 0.2, modSpeed: 0.2, filter: 0.45, noise: 0.2,
			overdub: 0.5, erode: 0.25,
			authentic: true, limit: true,
		}.preset("Unsafe Fripp Wash"),
		voicing{
			delayMs: 1200, feedback: 0.8, mix: 0.5, gainDB: 0,
			modDepth: 0.6, modSpeed: 0.7, filter: 0.7, noise: 0.35,
			overdub: 0.5, erode: 0.4,
			authentic: true, limit: true,
		}.preset("Clock Tear"),
		voicing{
			delayMs: 8000, feedback: 0.75, mix: 0.6, gainDB: -2,
			modDepth: 0.1, modSpeed: 0.1, filter: 0.5, noise: 0.15,
			overdub: 0.5, erode: 0.3,
			halfSpeed: true, limit: true,
		}.preset("Half-speed Ghosts"),
		voicing{
			delayMs: 5000, feedback: 0.7, mix: 0.55, gainDB: -1,
			modDepth: 0.25, modSpeed: 0.3, filter: 0.55, noise: 0.2,
			overdub: 0.5, erode: 0.35,
			reverse: true, limit: true,
		}.preset("Reverse Smear"),
		voicing{
			delayMs: 12000, feedback: 0.95, mix: 0.8, gainDB: -4,
			modDepth: 0.35, modSpeed: 0.15, filter: 0.35, noise: 0.45,
			overdub: 0.8, erode: 0.7,
			authentic: true, limit: true,
		}.preset("Erode Drone"),
	}
}

// NewFactoryBank returns a bank of the built-in presets.
func NewFactoryBank() *Bank {
	return NewBank(Factory()...)
}
