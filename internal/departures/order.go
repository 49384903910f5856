package departures

// Earlier reports whether a arrives strictly before b, comparing the
// "HH:MM" clocks digit by digit and skipping the separator.
func Earlier(a, b ArrivalRecord) bool {
	for _, i := range [...]int{0, 1, 3, 4} {
		ca, cb := clockByte(a.ArrivalClock, i), clockByte(b.ArrivalClock, i)
		if ca != cb {
			return ca < cb
		}
	}
	return false
}

// SortByArrival orders records by ArrivalClock in place. Records sharing a
// minute have no defined relative order.
func SortByArrival(records []ArrivalRecord) {
	for swapped := true; swapped; {
		swapped = false
		for i := 1; i < len(records); i++ {
			if Earlier(records[i], records[i-1]) {
				records[i], records[i-1] = records[i-1], records[i]
				swapped = true
			}
		}
	}
}

func clockByte(clock string, i int) byte {
	if i >= len(clock) {
		return 0
	}
	return clock[i]
}
