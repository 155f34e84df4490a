package pipeline

// defaultStageCapacity covers the full extraction pipeline.
const defaultStageCapacity = 7
