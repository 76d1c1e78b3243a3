// Package theme holds the fixed catalog of visual themes the site can be
// switched between.  The set is closed: the settings store persists only
// IDs that Valid accepts, and the front end maps each ID to a
// `theme-<id>` body class.
package theme

import "slices"

// Default is the theme used before any administrator has chosen one.
const Default = "church"

// Option describes one theme in both site languages.
type Option struct {
	ID            string `json:"id"`
	LabelEn       string `json:"labelEn"`
	LabelKo       string `json:"labelKo"`
	DescriptionEn string `json:"descriptionEn"`
	DescriptionKo string `json:"descriptionKo"`
}

// ids is the order reported in validation errors.
var ids = []string{"dark", "light", "church", "modern-sky", "modern-sand"}

// options is the order shown in the settings picker.
var options = []Option{
	{
		ID:            "church",
		LabelEn:       "Church Bright",
		LabelKo:       "교회 브라이트",
		DescriptionEn: "Bright church-photo theme with warm glass cards.",
		DescriptionKo: "교회 사진 중심의 밝고 따뜻한 글래스 테마",
	},
	{
		ID:            "light",
		LabelEn:       "Clean Light",
		LabelKo:       "클린 라이트",
		DescriptionEn: "Minimal and airy light UI for daytime readability.",
		DescriptionKo: "주간 가독성이 좋은 미니멀 라이트 테마",
	},
	{
		ID:            "modern-sky",
		LabelEn:       "Modern Sky",
		LabelKo:       "모던 스카이",
		DescriptionEn: "Cool gradient with contemporary blue accents.",
		DescriptionKo: "현대적인 블루 계열 그라데이션 테마",
	},
	{
		ID:            "modern-sand",
		LabelEn:       "Modern Sand",
		LabelKo:       "모던 샌드",
		DescriptionEn: "Warm neutral palette with soft contrast.",
		DescriptionKo: "따뜻한 뉴트럴 톤의 부드러운 대비 테마",
	},
	{
		ID:            "dark",
		LabelEn:       "Classic Dark",
		LabelKo:       "클래식 다크",
		DescriptionEn: "Original dark theme with high contrast.",
		DescriptionKo: "기존 고대비 다크 테마",
	},
}

// IDs returns a copy of the accepted theme IDs.
func IDs() []string { return slices.Clone(ids) }

// Options returns a copy of the bilingual catalog.
func Options() []Option { return slices.Clone(options) }

// Valid reports whether id is in the catalog.  Matching is exact.
func Valid(id string) bool { return slices.Contains(ids, id) }
