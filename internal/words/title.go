package words

func Title(corrects, wins int) string {
	switch {
	case corrects >= 50000:
		return "Queen Bee"
	case corrects >= 10000:
		return "Hive Master"
	case wins >= 1000:
		return "Hive Champion"
	case corrects >= 1000 && wins >= 100:
		return "Busy Bee"
	default:
		return "Newbee"
	}
}
