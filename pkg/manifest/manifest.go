package manifest

// Build describes one build run. It is persisted next to the classifier so that inspect and
// classify can report what a model was trained on without decoding the model itself.
type Build struct {
	RunID              string `json:"run_id" yaml:"run_id"`
	GeneratedAt        string `json:"generated_at" yaml:"generated_at"`
	StartedAt          string `json:"started_at" yaml:"started_at"`
	UsedCachedData     bool   `json:"used_cached_data" yaml:"used_cached_data"`
	SiteRoot           string `json:"site_root,omitempty" yaml:"site_root,omitempty"`
	ModelSchemaVersion int    `json:"model_schema_version" yaml:"model_schema_version"`

	Articles           int `json:"articles" yaml:"articles"`
	MultiLabelArticles int `json:"multi_label_articles" yaml:"multi_label_articles"`
	EmptyArticles      int `json:"empty_articles" yaml:"empty_articles"`
	Vocabulary         int `json:"vocabulary" yaml:"vocabulary"`

	Training Training `json:"training" yaml:"training"`

	Language             *LanguageSummary `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageDistribution map[string]int   `json:"language_distribution,omitempty" yaml:"language_distribution,omitempty"`

	CrawlSeconds float64 `json:"crawl_seconds" yaml:"crawl_seconds"`
	TrainSeconds float64 `json:"train_seconds" yaml:"train_seconds"`

	Categories []CategorySummary `json:"categories" yaml:"categories"`
}

// Training records the hyperparameters the classifier was fitted with.
type Training struct {
	MinDF          int     `json:"min_df" yaml:"min_df"`
	Estimators     int     `json:"n_estimators" yaml:"n_estimators"`
	LearningRate   float64 `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth       int     `json:"max_depth" yaml:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf" yaml:"min_samples_leaf"`
}

// LanguageSummary is the dominant corpus language. Share is the fraction of articles in it.
type LanguageSummary struct {
	Code  string  `json:"code" yaml:"code"`
	Name  string  `json:"name" yaml:"name"`
	Share float64 `json:"share" yaml:"share"`
}

// CategorySummary represents summary information for a single category.
type CategorySummary struct {
	Index       int      `json:"index" yaml:"index"`
	Name        string   `json:"name" yaml:"name"`
	Articles    int      `json:"articles" yaml:"articles"`
	TopKeywords []string `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
}
