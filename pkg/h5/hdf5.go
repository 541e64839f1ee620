// Package h5 writes sweep results to HDF5.
package h5

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

// STRLEN is the fixed size of every string column.
const STRLEN = 128

// H5S_UNLIMITED is -1L
const unlimitedDims = -1

type ErrCreateGroup struct {
	Group string
	Err   error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %s: %v", e.Group, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

type ErrCreateTable struct {
	Table string
	Err   error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %s: %v", e.Table, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

func openFile(fname string) (*hdf5.File, error) {
	return hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{Group: groupName, Err: err}
	}
	return g, nil
}

func newChunkedPropList(chunks []uint, compression int) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, err
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, err
		}
	}
	return plist, nil
}

// createWaveformsArray creates an extensible points x nSamples array of
// float64.
func createWaveformsArray(group *hdf5.Group, name string, nSamples int, compression int) (*hdf5.Dataset, error) {
	if nSamples < 1 {
		return nil, &ErrCreateTable{Table: name, Err: fmt.Errorf("invalid number of samples %d", nSamples)}
	}
	dims := []uint{0, uint(nSamples)}
	maxDims := []uint{uint(unlimitedDims), uint(nSamples)}
	space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{Table: name, Err: err}
	}
	defer space.Close()

	plist, err := newChunkedPropList([]uint{1, uint(nSamples)}, compression)
	if err != nil {
		return nil, &ErrCreateTable{Table: name, Err: err}
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_DOUBLE, space, plist)
	if err != nil {
		return nil, &ErrCreateTable{Table: name, Err: err}
	}
	return dset, nil
}

// createTable creates an extensible one dimensional table whose row type is
// the type of datatype.
func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	space, err := hdf5.CreateSimpleDataspace([]uint{0}, []uint{uint(unlimitedDims)})
	if err != nil {
		return nil, &ErrCreateTable{Table: name, Err: err}
	}
	defer space.Close()

	plist, err := newChunkedPropList([]uint{1024}, compression)
	if err != nil {
		return nil, &ErrCreateTable{Table: name, Err: err}
	}
	defer plist.Close()

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{Table: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, space, plist)
	if err != nil {
		return nil, &ErrCreateTable{Table: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, counter int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, counter)
}

// writeArrayToTable appends data after the first counter rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, counter int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	rowsInFile := uint(counter)
	if err := dataset.Resize([]uint{rowsInFile + length}); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{rowsInFile}, nil, []uint{length}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// writeWaveform appends one row to a waveforms array.
func writeWaveform(dataset *hdf5.Dataset, data *[]float64, counter int) error {
	nSamples := uint(len(*data))
	if err := dataset.Resize([]uint{uint(counter) + 1, nSamples}); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	count := []uint{1, nSamples}
	if err := filespace.SelectHyperslab([]uint{uint(counter), 0}, nil, count, nil); err != nil {
		return err
	}
	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}
