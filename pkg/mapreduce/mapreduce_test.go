package mapreduce

import (
	"reflect"
	"testing"
)

func TestReduce(t *testing.T) {
	got := Reduce([]map[string]int{
		{"cat": 2, "purr": 1},
		{"cat": 1, "dog": 3},
	})
	want := map[string]int{"cat": 3, "purr": 1, "dog": 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce() = %v, want %v", got, want)
	}
}

func TestByCategory(t *testing.T) {
	texts := map[string]string{
		"Tabby": "cat cat stripes",
		"Rex":   "dog cat",
		"Spot":  "dog spots",
	}
	labelMap := map[string][]int{
		"Tabby": {0},
		"Rex":   {0, 1},
		"Spot":  {1, 7},
	}

	got := ByCategory(texts, labelMap, 2)
	want := []map[string]int{
		{"cat": 3, "stripes": 1, "dog": 1},
		{"dog": 2, "cat": 1, "spots": 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ByCategory() = %v, want %v", got, want)
	}
}

func TestTopKeywords(t *testing.T) {
	counts := map[string]int{"feline": 5, "purr": 2, "claws": 2, "tail": 1}

	tests := []struct {
		n    int
		want []string
	}{
		{2, []string{"feline:5", "claws:2"}},
		{3, []string{"feline:5", "claws:2", "purr:2"}},
		{10, []string{"feline:5", "claws:2", "purr:2", "tail:1"}},
		{0, []string{}},
	}
	for _, tt := range tests {
		got := TopKeywords(counts, tt.n)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("TopKeywords(n=%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}
