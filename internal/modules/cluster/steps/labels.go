package steps

import (
	"strings"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
)

const (
	labelContentWindow = 200
	labelWordsPerItem  = 10
	labelMaxWords      = 20
)

type LabelInput struct {
	Memories []domain.Memory
	// ValidIndex maps graph node -> index into Memories.
	ValidIndex []int
	Membership []int
	SampleSize int
}

// BuildClusterLabels derives descriptive metadata per cluster from a bounded
// member sample: the majority category (first-seen wins ties) and up to 20
// leading words of sampled content. Labels never influence the clustering
// itself.
func BuildClusterLabels(in LabelInput) map[int]domain.L1ClusterInfo {
	clusters := map[int][]domain.Memory{}
	order := make([]int, 0)
	for node, cid := range in.Membership {
		if _, seen := clusters[cid]; !seen {
			order = append(order, cid)
		}
		clusters[cid] = append(clusters[cid], in.Memories[in.ValidIndex[node]])
	}

	labels := make(map[int]domain.L1ClusterInfo, len(clusters))
	for _, cid := range order {
		members := clusters[cid]
		sample := members
		if in.SampleSize > 0 && len(sample) > in.SampleSize {
			sample = sample[:in.SampleSize]
		}

		counts := map[string]int{}
		firstSeen := make([]string, 0, len(sample))
		for _, m := range sample {
			if _, ok := counts[m.Category]; !ok {
				firstSeen = append(firstSeen, m.Category)
			}
			counts[m.Category]++
		}
		primary := ""
		bestCount := -1
		for _, cat := range firstSeen {
			if counts[cat] > bestCount {
				bestCount = counts[cat]
				primary = cat
			}
		}

		words := make([]string, 0, labelMaxWords)
		for _, m := range sample {
			content := m.Content
			if r := []rune(content); len(r) > labelContentWindow {
				content = string(r[:labelContentWindow])
			}
			fields := strings.Fields(content)
			if len(fields) > labelWordsPerItem {
				fields = fields[:labelWordsPerItem]
			}
			words = append(words, fields...)
		}
		if len(words) > labelMaxWords {
			words = words[:labelMaxWords]
		}

		labels[cid] = domain.L1ClusterInfo{
			PrimaryType: primary,
			Size:        len(members),
			SampleWords: words,
		}
	}
	return labels
}
