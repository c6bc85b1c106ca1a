package ml

import (
	"math"
	"math/rand"
)

// StratifiedSplit partitions sample indexes into train and test sets,
// preserving the class distribution. Classes with a single member stay in
// the training set.
func StratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	// Deterministic class order regardless of map iteration.
	maxLabel := -1
	for label := range byClass {
		if label > maxLabel {
			maxLabel = label
		}
	}

	for label := 0; label <= maxLabel; label++ {
		members := byClass[label]
		if len(members) == 0 {
			continue
		}
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})

		cut := int(math.Round(float64(len(members)) * testFraction))
		if cut == 0 && len(members) > 1 {
			cut = 1
		}
		if cut >= len(members) {
			cut = len(members) - 1
		}
		test = append(test, members[:cut]...)
		train = append(train, members[cut:]...)
	}
	return train, test
}

// ClassReport holds precision/recall/F1 for one class of a held-out split.
type ClassReport struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Accuracy is the fraction of predictions matching the true labels.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// Report computes per-class precision, recall and F1 over numClasses classes.
func Report(yTrue, yPred []int, numClasses int) []ClassReport {
	tp := make([]int, numClasses)
	fp := make([]int, numClasses)
	fn := make([]int, numClasses)

	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
		} else {
			fp[yPred[i]]++
			fn[yTrue[i]]++
		}
	}

	reports := make([]ClassReport, numClasses)
	for c := 0; c < numClasses; c++ {
		r := ClassReport{Support: tp[c] + fn[c]}
		if tp[c]+fp[c] > 0 {
			r.Precision = float64(tp[c]) / float64(tp[c]+fp[c])
		}
		if tp[c]+fn[c] > 0 {
			r.Recall = float64(tp[c]) / float64(tp[c]+fn[c])
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		reports[c] = r
	}
	return reports
}
