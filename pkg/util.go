package pkg

import (
	"math"
	"os"
)

// PathExists returns whether the given file or directory exists
func PathExists(path string, isDir bool) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if (isDir && stat.IsDir()) || (!isDir && !stat.IsDir()) {
		return true, nil
	}
	return false, err
}

// RoundTo2Decimals rounds the given value to 2 decimal places,
// same as the scale export values are stored.
func RoundTo2Decimals(val float64) float64 {
	return math.Round(val*100) / 100
}
