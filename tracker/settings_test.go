package tracker

import "testing"

func TestSettingsDefaultsAreValid(t *testing.T) {
	if err := NewSettings().Validate(); err != nil {
		t.Errorf("default settings should validate: %v", err)
	}
}

func TestSettingsValidateRejectsBadValues(t *testing.T) {

	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"negative threshold", func(s *Settings) { s.DistThreshold = -1 }},
		{"negative weight", func(s *Settings) { s.DistWeights[DistJaccard] = -0.5 }},
		{"zero dt", func(s *Settings) { s.DT = 0 }},
		{"bad trace length", func(s *Settings) { s.MaxTraceLength = 0 }},
		{"inverted static window", func(s *Settings) { s.MinStaticTime = 10; s.MaxStaticTime = 5 }},
		{"hist coeff out of range", func(s *Settings) { s.HistEMACoeff = 1 }},
		{"embedding coeff out of range", func(s *Settings) { s.EmbeddingEMACoeff = 0 }},
		{"unknown match type", func(s *Settings) { s.MatchType = MatchType(99) }},
		{"unknown kalman type", func(s *Settings) { s.KalmanType = KalmanType(99) }},
		{"unknown filter goal", func(s *Settings) { s.FilterGoal = FilterGoal(99) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSettings()
			tc.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestSettingsCheckTypeDefault(t *testing.T) {

	s := NewSettings()

	if !s.CheckType(1, 1) {
		t.Error("equal types must be compatible")
	}

	if s.CheckType(1, 2) {
		t.Error("different types must not be compatible by default")
	}

	if !s.CheckType(TypeUnknown, 2) || !s.CheckType(1, TypeUnknown) {
		t.Error("unknown types must be compatible with everything")
	}
}

func TestLoadSettings(t *testing.T) {

	data := []byte(`{
		"match_type": "bipart",
		"filter_goal": "rect",
		"dist_threshold": 0.6,
		"dist_weights": [0.5, 0.0, 0.5, 0.0, 0.0],
		"dt": 0.2,
		"max_trace_length": 30,
		"max_skipped_frames": 10,
		"use_abandoned_detection": true,
		"min_static_time": 2,
		"max_static_time": 8,
		"hist_ema_coeff": 0.3,
		"embeddings": [
			{
				"weights": "reid.onnx",
				"output_layer": "features",
				"input_width": 64,
				"input_height": 128,
				"object_types": [0, 1]
			}
		]
	}`)

	s, err := LoadSettings(data)

	if err != nil {
		t.Fatalf("error loading settings: %v", err)
	}

	if s.MatchType != MatchBipart {
		t.Errorf("expected bipart match type, got %d", s.MatchType)
	}

	if s.FilterGoal != FilterRect {
		t.Errorf("expected rect filter goal, got %d", s.FilterGoal)
	}

	if s.DistThreshold != 0.6 || s.DistWeights[DistCenters] != 0.5 || s.DistWeights[DistRects] != 0 {
		t.Errorf("unexpected distance settings: %v %v", s.DistThreshold, s.DistWeights)
	}

	if s.MaxTraceLength != 30 || s.MaximumAllowedSkippedFrames != 10 {
		t.Errorf("unexpected lifecycle settings: %d %d", s.MaxTraceLength, s.MaximumAllowedSkippedFrames)
	}

	if !s.UseAbandonedDetection || s.MinStaticTime != 2 || s.MaxStaticTime != 8 {
		t.Errorf("unexpected static settings")
	}

	if s.HistEMACoeff != 0.3 {
		t.Errorf("expected hist EMA coefficient 0.3, got %v", s.HistEMACoeff)
	}

	if len(s.Embeddings) != 1 {
		t.Fatalf("expected 1 embedding param, got %d", len(s.Embeddings))
	}

	emb := s.Embeddings[0]

	if emb.WeightsPath != "reid.onnx" || emb.OutputLayer != "features" {
		t.Errorf("unexpected embedding param: %+v", emb)
	}

	if emb.InputSize.X != 64 || emb.InputSize.Y != 128 {
		t.Errorf("unexpected embedding input size: %v", emb.InputSize)
	}

	if len(emb.ObjectTypes) != 2 || emb.ObjectTypes[0] != 0 || emb.ObjectTypes[1] != 1 {
		t.Errorf("unexpected embedding object types: %v", emb.ObjectTypes)
	}

	// defaults survive for keys the JSON does not mention
	if s.MinAreaRadiusK != 0.8 {
		t.Errorf("expected default min area radius k, got %v", s.MinAreaRadiusK)
	}
}

func TestLoadSettingsRejectsBadInput(t *testing.T) {

	if _, err := LoadSettings([]byte("{not json")); err == nil {
		t.Error("expected an error for invalid JSON")
	}

	if _, err := LoadSettings([]byte(`{"match_type": "magic"}`)); err == nil {
		t.Error("expected an error for an unknown match type")
	}

	if _, err := LoadSettings([]byte(`{"dist_weights": [1, 2]}`)); err == nil {
		t.Error("expected an error for a short weight array")
	}

	if _, err := LoadSettings([]byte(`{"hist_ema_coeff": 3}`)); err == nil {
		t.Error("expected the loaded settings to be validated")
	}
}
