package disease

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// Artifact wire format:
//
//	{
//	  "model":         {"type": "logistic_regression", ...family fields},
//	  "feature_names": ["fever", "cough", ...],
//	  "label_names":   ["influenza", ...]
//	}
//
// No other top-level fields are accepted.

var artifactFields = []string{"feature_names", "label_names", "model"}

type modelHeader struct {
	Type string `json:"type"`
}

type logisticWire struct {
	Type string `json:"type"`
	LogisticRegression
}

type treesWire struct {
	Type string `json:"type"`
	GradientBoostedTrees
}

// DecodeArtifact parses and validates an artifact.  Every failure is a
// ModelNotLoaded error: a model that cannot be trusted is not served.
func DecodeArtifact(r io.Reader) (*ModelArtifact, error) {
	var top map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelNotLoaded, "decode model artifact")
	}
	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if strings.Join(keys, ",") != strings.Join(artifactFields, ",") {
		return nil, errors.New(errors.ErrCodeModelNotLoaded, "model artifact must have exactly model, feature_names and label_names").
			WithDetailf("fields=%v", keys)
	}

	m := &ModelArtifact{}
	if err := strictUnmarshal(top["feature_names"], &m.FeatureNames); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelNotLoaded, "decode feature_names")
	}
	if err := strictUnmarshal(top["label_names"], &m.LabelNames); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelNotLoaded, "decode label_names")
	}

	var hdr modelHeader
	if err := json.Unmarshal(top["model"], &hdr); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelNotLoaded, "decode model header")
	}
	m.Type = hdr.Type
	switch hdr.Type {
	case TypeLogisticRegression:
		var w logisticWire
		if err := strictUnmarshal(top["model"], &w); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeModelNotLoaded, "decode logistic regression")
		}
		if err := w.LogisticRegression.check(); err != nil {
			return nil, err
		}
		m.Classifier = &w.LogisticRegression
	case TypeGradientBoostedTrees:
		var w treesWire
		if err := strictUnmarshal(top["model"], &w); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeModelNotLoaded, "decode boosted trees")
		}
		if err := w.GradientBoostedTrees.check(); err != nil {
			return nil, err
		}
		m.Classifier = &w.GradientBoostedTrees
	default:
		return nil, errors.Wrap(
			errors.Newf(errors.ErrCodeModelTypeUnsupported, "unsupported model type %q", hdr.Type),
			errors.ErrCodeModelNotLoaded, "model artifact rejected")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeArtifact writes m in the wire format.  Only the built-in classifier
// families can be encoded.
func EncodeArtifact(w io.Writer, m *ModelArtifact) error {
	if err := m.Validate(); err != nil {
		return err
	}
	var model interface{}
	switch c := m.Classifier.(type) {
	case *LogisticRegression:
		model = logisticWire{Type: TypeLogisticRegression, LogisticRegression: *c}
	case *GradientBoostedTrees:
		model = treesWire{Type: TypeGradientBoostedTrees, GradientBoostedTrees: *c}
	default:
		return errors.Newf(errors.ErrCodeModelTypeUnsupported, "cannot encode classifier %T", m.Classifier)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"model":         model,
		"feature_names": m.FeatureNames,
		"label_names":   m.LabelNames,
	})
}

func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
