package repeat

// ctxCheckInterval is the number of lags scanned between cancellation checks.
const ctxCheckInterval = 64
