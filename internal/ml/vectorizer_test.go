package ml

import (
	"encoding/json"
	"math"
	"testing"
)

func TestVectorizerFit(t *testing.T) {
	v := NewVectorizer(1000)
	v.Fit([]string{
		"taxi aeropuerto",
		"taxi trabajo",
		"alimentacion trabajo",
	})

	if _, ok := v.Vocabulary["taxi"]; !ok {
		t.Error("vocabulary should contain 'taxi'")
	}
	if _, ok := v.Vocabulary["taxi aeropuerto"]; !ok {
		t.Error("vocabulary should contain the bigram 'taxi aeropuerto'")
	}
	if len(v.IDF) != len(v.Vocabulary) {
		t.Errorf("IDF length %d does not match vocabulary size %d", len(v.IDF), len(v.Vocabulary))
	}

	// "taxi" appears in 2 of 3 documents: idf = ln(4/3) + 1.
	wantIDF := math.Log(4.0/3.0) + 1
	if got := v.IDF[v.Vocabulary["taxi"]]; math.Abs(got-wantIDF) > 1e-9 {
		t.Errorf("idf(taxi) = %v, want %v", got, wantIDF)
	}
}

func TestVectorizerDropsStopWords(t *testing.T) {
	v := NewVectorizer(1000)
	v.Fit([]string{"taxi al aeropuerto", "cena en el centro"})

	for _, stop := range []string{"al", "en", "el"} {
		if _, ok := v.Vocabulary[stop]; ok {
			t.Errorf("stop word %q should not be in the vocabulary", stop)
		}
	}
	if _, ok := v.Vocabulary["taxi aeropuerto"]; !ok {
		t.Error("bigram should bridge removed stop words")
	}
}

func TestVectorizerMaxFeatures(t *testing.T) {
	v := NewVectorizer(3)
	v.Fit([]string{
		"taxi taxi taxi",
		"pan pan",
		"cine",
		"regalo",
		"farmacia",
	})
	if len(v.Vocabulary) != 3 {
		t.Errorf("vocabulary size = %d, want 3", len(v.Vocabulary))
	}
	if _, ok := v.Vocabulary["taxi"]; !ok {
		t.Error("most frequent term should survive the cap")
	}
}

func TestVectorizerTransform(t *testing.T) {
	v := NewVectorizer(1000)
	v.Fit([]string{"taxi aeropuerto", "pan integral"})

	vec := v.Transform("taxi aeropuerto")
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("transformed vector norm = %v, want 1", math.Sqrt(norm))
	}

	if got := v.Transform("algo desconocido"); sum(got) != 0 {
		t.Error("unknown terms should produce a zero vector")
	}
}

func TestVectorizerDeterministicFit(t *testing.T) {
	docs := []string{"a b c", "c b", "d e f", "f e d c"}

	v1 := NewVectorizer(5)
	v1.Fit(docs)
	v2 := NewVectorizer(5)
	v2.Fit(docs)

	if len(v1.Vocabulary) != len(v2.Vocabulary) {
		t.Fatalf("vocabulary sizes differ: %d vs %d", len(v1.Vocabulary), len(v2.Vocabulary))
	}
	for term, idx := range v1.Vocabulary {
		if v2.Vocabulary[term] != idx {
			t.Errorf("term %q indexed %d vs %d across fits", term, idx, v2.Vocabulary[term])
		}
	}
}

func TestVectorizerSurvivesRoundTrip(t *testing.T) {
	v := NewVectorizer(1000)
	v.Fit([]string{"taxi aeropuerto", "pan integral", "taxi centro"})
	before := v.Transform("taxi centro")

	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Vectorizer
	if err := json.Unmarshal(payload, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	after := restored.Transform("taxi centro")
	if len(before) != len(after) {
		t.Fatalf("vector widths differ: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if math.Abs(before[i]-after[i]) > 1e-12 {
			t.Fatalf("restored vectorizer diverges at %d: %v vs %v", i, before[i], after[i])
		}
	}
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
