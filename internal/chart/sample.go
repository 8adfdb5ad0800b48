package chart

import "FinDash/internal/domain/models"

// DefaultPoints returns a fresh copy of the demo series shown when no data is supplied.
func DefaultPoints() []Point {
	out := make([]Point, len(defaultPoints))
	copy(out, defaultPoints)
	return out
}

var defaultPoints = []Point{
	{Time: models.BusinessDay("2019-04-11"), Open: 75.16, High: 82.84, Low: 74.50, Close: 80.01},
	{Time: models.BusinessDay("2019-04-12"), Open: 80.01, High: 98.50, Low: 79.00, Close: 96.63},
	{Time: models.BusinessDay("2019-04-13"), Open: 96.63, High: 97.20, Low: 74.20, Close: 76.64},
	{Time: models.BusinessDay("2019-04-14"), Open: 76.64, High: 85.50, Low: 75.80, Close: 81.89},
	{Time: models.BusinessDay("2019-04-15"), Open: 81.89, High: 83.20, Low: 72.10, Close: 74.43},
	{Time: models.BusinessDay("2019-04-16"), Open: 74.43, High: 82.50, Low: 73.90, Close: 80.01},
	{Time: models.BusinessDay("2019-04-17"), Open: 80.01, High: 99.00, Low: 78.50, Close: 96.63},
	{Time: models.BusinessDay("2019-04-18"), Open: 96.63, High: 98.10, Low: 75.20, Close: 76.64},
	{Time: models.BusinessDay("2019-04-19"), Open: 76.64, High: 86.30, Low: 76.00, Close: 81.89},
	{Time: models.BusinessDay("2019-04-20"), Open: 81.89, High: 84.50, Low: 71.80, Close: 74.43},
	{Time: models.BusinessDay("2019-04-21"), Open: 74.43, High: 83.20, Low: 74.00, Close: 80.01},
	{Time: models.BusinessDay("2019-04-22"), Open: 80.01, High: 99.50, Low: 79.20, Close: 96.63},
	{Time: models.BusinessDay("2019-04-23"), Open: 96.63, High: 97.80, Low: 74.80, Close: 76.64},
	{Time: models.BusinessDay("2019-04-24"), Open: 76.64, High: 87.10, Low: 75.50, Close: 81.89},
	{Time: models.BusinessDay("2019-04-25"), Open: 81.89, High: 83.80, Low: 72.50, Close: 74.43},
	{Time: models.BusinessDay("2019-04-26"), Open: 74.43, High: 82.90, Low: 73.60, Close: 80.01},
	{Time: models.BusinessDay("2019-04-27"), Open: 80.01, High: 98.80, Low: 78.90, Close: 96.63},
	{Time: models.BusinessDay("2019-04-28"), Open: 96.63, High: 97.50, Low: 75.60, Close: 76.64},
	{Time: models.BusinessDay("2019-04-29"), Open: 76.64, High: 86.80, Low: 76.20, Close: 81.89},
	{Time: models.BusinessDay("2019-04-30"), Open: 81.89, High: 84.20, Low: 72.20, Close: 74.43},
}
