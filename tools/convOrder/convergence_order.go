package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
)

var (
	csvFile string
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a convergence study")
	flag.Parse()
	csvFile = *csvFilePtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	studies := readCSV(csvFile)
	for _, cs := range studies {
		fmt.Printf("Title = %s, Order = %d, CFL = %5.2f\n", cs.title, cs.order, cs.CFL)
		fmt.Printf("%8s %14s %8s %14s %8s\n", "numPTS", "uL2", "rate", "uMAX", "rate")
		for i := range cs.numPTS {
			if i == 0 {
				fmt.Printf("%8d %14.6e %8s %14.6e %8s\n",
					cs.numPTS[i], cs.uL2[i], "-", cs.uMAX[i], "-")
				continue
			}
			rL2 := rate(cs.numPTS[i-1], cs.numPTS[i], cs.uL2[i-1], cs.uL2[i])
			rMAX := rate(cs.numPTS[i-1], cs.numPTS[i], cs.uMAX[i-1], cs.uMAX[i])
			fmt.Printf("%8d %14.6e %8.3f %14.6e %8.3f\n",
				cs.numPTS[i], cs.uL2[i], rL2, cs.uMAX[i], rMAX)
		}
	}
}

// rate is the observed order of accuracy between two resolutions of the
// same study, log(e1/e2) / log(h1/h2), with h inversely proportional to
// the point count.
func rate(n1, n2 int, e1, e2 float64) float64 {
	return math.Log(e1/e2) / math.Log(float64(n2)/float64(n1))
}

type ConvergenceStudy struct {
	title     string
	order     int
	numPTS    []int
	CFL       float64
	uL2, uMAX []float64
}

func NewConvergenceStudy(title string, order int, CFL float64) *ConvergenceStudy {
	return &ConvergenceStudy{
		title: title,
		order: order,
		CFL:   CFL,
	}
}

func (cs *ConvergenceStudy) Add(numPTS int, uL2, uMAX float64) {
	cs.numPTS = append(cs.numPTS, numPTS)
	cs.uL2 = append(cs.uL2, uL2)
	cs.uMAX = append(cs.uMAX, uMAX)
}

func readCSV(csvFile string) (studies map[string]*ConvergenceStudy) {
	var (
		records   [][]string
		err       error
		f         *os.File
		ok        bool
		cs        *ConvergenceStudy
		cfl       float64
		uL2, uMAX float64
	)
	studies = make(map[string]*ConvergenceStudy)
	if f, err = os.Open(csvFile); err != nil {
		panic(err)
	}
	r := csv.NewReader(bufio.NewReader(f))
	if records, err = r.ReadAll(); err != nil {
		panic(err)
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		title, nptstxt, ntxt, cfltxt := rec[0], rec[1], rec[2], rec[3]
		n, _ := strconv.Atoi(ntxt)
		npts, _ := strconv.Atoi(nptstxt)
		_, _ = fmt.Sscanf(cfltxt, "%f", &cfl)
		combTitle := title + ntxt
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, n, cfl)
			studies[combTitle] = cs
		}
		_, _ = fmt.Sscanf(rec[4], "%f", &uL2)
		_, _ = fmt.Sscanf(rec[5], "%f", &uMAX)
		cs.Add(npts, uL2, uMAX)
	}
	return
}
