/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Goraster

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind 错误类别
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidArgument
	KindIndexOutOfRange
	KindUnsupportedOperation
	KindDriverError
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnsupported     = errors.New("unsupported operation")
	ErrDriver          = errors.New("driver error")
)

var errDatasetClosed = errors.New("dataset is closed")

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindIndexOutOfRange:
		return "IndexOutOfRange"
	case KindUnsupportedOperation:
		return "UnsupportedOperation"
	case KindDriverError:
		return "DriverError"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindIndexOutOfRange:
		return ErrIndexOutOfRange
	case KindUnsupportedOperation:
		return ErrUnsupported
	case KindDriverError:
		return ErrDriver
	}
	return nil
}

// BandError 波段操作错误，Kind 可用于调用方分支处理
type BandError struct {
	Kind  ErrorKind
	Op    string
	Index int // 波段序号，0 表示与具体波段无关
	Err   error
}

// NewBandError 构造波段错误
func NewBandError(kind ErrorKind, op string, index int, err error) *BandError {
	return &BandError{Kind: kind, Op: op, Index: index, Err: err}
}

func (e *BandError) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Index != 0 {
		msg += fmt.Sprintf(" (band %d)", e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BandError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrIndexOutOfRange) 等哨兵判断生效
func (e *BandError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf 获取错误类别，非 BandError 返回 KindUnknown
func KindOf(err error) ErrorKind {
	var be *BandError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// DriverCause 返回驱动层报告的原始错误
func DriverCause(err error) error {
	var be *BandError
	if !errors.As(err, &be) || be.Kind != KindDriverError || be.Err == nil {
		return nil
	}
	return errors.Cause(be.Err)
}

func invalidArgf(op string, index int, format string, args ...interface{}) error {
	return NewBandError(KindInvalidArgument, op, index, errors.Errorf(format, args...))
}

func outOfRange(op string, index, count int) error {
	return NewBandError(KindIndexOutOfRange, op, index,
		errors.Errorf("band index %d outside [1, %d]", index, count))
}

func unsupportedf(op string, format string, args ...interface{}) error {
	return NewBandError(KindUnsupportedOperation, op, 0, errors.Errorf(format, args...))
}

func driverErr(op string, index int, driver string, err error) error {
	return NewBandError(KindDriverError, op, index, errors.Wrapf(err, "%s driver", driver))
}
