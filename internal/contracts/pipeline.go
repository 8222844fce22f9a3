package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 배치 요약에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   Clean → Features → Quality → Store  (backfill / daily)
//   Store → Inference → Forecast        (predict / recommend)

// Stage represents a pipeline stage
type Stage string

const (
	// StageClean 원시 일봉 검증/보정
	// 위치: internal/s0_data/cleaner/
	StageClean Stage = "S0_CLEAN"

	// StageFeatures 피처 벡터 계산
	// 위치: internal/s0_data/features/
	StageFeatures Stage = "S0_FEATURES"

	// StageQuality 행 단위 품질 점수
	// 위치: internal/s0_data/quality/
	StageQuality Stage = "S0_QUALITY"

	// StageStore (date, symbol) 기준 upsert
	// 위치: internal/s0_data/
	StageStore Stage = "S0_STORE"

	// StageBackfill 60일 초기 적재 배치
	// 위치: internal/s0_data/collector/
	StageBackfill Stage = "S0_BACKFILL"

	// StageDaily 일간 증분 배치
	// 위치: internal/s0_data/collector/
	StageDaily Stage = "S0_DAILY"

	// StageInference 텐서 준비/역변환
	// 위치: internal/forecast/
	StageInference Stage = "S1_INFERENCE"

	// StageForecast 다일 예측 및 추천일 선택
	// 위치: internal/forecast/
	StageForecast Stage = "S1_FORECAST"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageClean, StageFeatures, StageQuality, StageStore, StageBackfill, StageDaily:
		return "S0"
	case StageInference, StageForecast:
		return "S1"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageClean,
		StageFeatures,
		StageQuality,
		StageStore,
		StageBackfill,
		StageDaily,
		StageInference,
		StageForecast,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
