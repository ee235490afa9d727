package help

const ColdstartYAML = `# wikicat Quick Start

pipeline:
  crawl: "Walk each category listing (following 'next page' links) and fetch every article"
  train: "tf-idf over article text, then one gradient boosted classifier per category"
  persist: "Crawl data, label maps, classifier and manifest are blobs in one SQLite store"
  classify: "Fetch one page and report the probability of each category"

commands:
  first_build: |
    printf 'Cats\nDogs\n' > categories.txt
    wikicat build --categories categories.txt

  retrain_without_crawling: |
    wikicat build --use-cached-data --estimators 200

  tolerant_crawl: |
    wikicat build --categories categories.txt --skip-failed-articles --cache-dir ./pages

  classify: |
    wikicat classify --url "https://en.wikipedia.org/wiki/Tabby_cat"
    wikicat classify --url "https://en.wikipedia.org/wiki/Tabby_cat" --format table --top 3
    wikicat classify --url "https://en.wikipedia.org/wiki/Tabby_cat" --format json -o tabby.json

  inspect_store: |
    wikicat inspect
    wikicat inspect --format yaml --top 5
    wikicat inspect --export ./artifacts

  build_history: |
    wikicat db builds
    wikicat db build            # latest
    wikicat db raw manifest

store:
  default_path: "$XDG_DATA_HOME/wikicat/wikicat.db"
  override: "--store PATH or WIKICAT_STORE"
  blobs:
    text_dict: "article title -> text"
    target_dict: "article title -> category indices"
    ind_cat_map: "category index -> name"
    cat_ind_map: "category name -> index"
    classifier: "versioned model (vocabulary, idf, trees)"
    manifest: "summary of the last successful build"

config:
  file: "--config FILE (YAML, read over the defaults)"
  env_files: ".env.local then .env; WIKICAT_* variables bind to flags"
  keys: [site_root, store_path, crawl, fetch, vectorizer, boosting, languages]

invariants:
  - "An article listed in several categories is fetched once and carries every label"
  - "Titles starting with Wikipedia: or Category: are never crawled"
  - "Every blob is written together after training succeeds; a failed build leaves the previous build in place"
  - "classify never creates a store"

error_behavior:
  - "Listing fetch failures abort the build"
  - "Article fetch failures abort the build unless --skip-failed-articles is set"
  - "Missing label maps: classify prints probabilities by category index"
  - "Exit codes: 0=success, 1=configuration error, 2=runtime failure"
`
