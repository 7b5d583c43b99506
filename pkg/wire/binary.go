package wire

// MarshalBinary/UnmarshalBinary adapt each message to the generic
// encoding.BinaryMarshaler/BinaryUnmarshaler shape the grpc custom codec
// (pkg/rpcserver) invokes without reflection.

func (r *GetRootRequest) MarshalBinary() ([]byte, error) { return MarshalGetRootRequest(r) }
func (r *GetRootRequest) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalGetRootRequest(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *GetRootResponse) MarshalBinary() ([]byte, error) { return MarshalGetRootResponse(r) }
func (r *GetRootResponse) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalGetRootResponse(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *SetRootRequest) MarshalBinary() ([]byte, error) { return MarshalSetRootRequest(r) }
func (r *SetRootRequest) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalSetRootRequest(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *SetRootResponse) MarshalBinary() ([]byte, error) { return MarshalSetRootResponse(r) }
func (r *SetRootResponse) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalSetRootResponse(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *GetLeafRequest) MarshalBinary() ([]byte, error) { return MarshalGetLeafRequest(r) }
func (r *GetLeafRequest) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalGetLeafRequest(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *GetLeafResponse) MarshalBinary() ([]byte, error) { return MarshalGetLeafResponse(r) }
func (r *GetLeafResponse) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalGetLeafResponse(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *SetLeafRequest) MarshalBinary() ([]byte, error) { return MarshalSetLeafRequest(r) }
func (r *SetLeafRequest) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalSetLeafRequest(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *SetLeafResponse) MarshalBinary() ([]byte, error) { return MarshalSetLeafResponse(r) }
func (r *SetLeafResponse) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalSetLeafResponse(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *GetNonLeafRequest) MarshalBinary() ([]byte, error) { return MarshalGetNonLeafRequest(r) }
func (r *GetNonLeafRequest) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalGetNonLeafRequest(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *GetNonLeafResponse) MarshalBinary() ([]byte, error) { return MarshalGetNonLeafResponse(r) }
func (r *GetNonLeafResponse) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalGetNonLeafResponse(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *SetNonLeafRequest) MarshalBinary() ([]byte, error) { return MarshalSetNonLeafRequest(r) }
func (r *SetNonLeafRequest) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalSetNonLeafRequest(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *SetNonLeafResponse) MarshalBinary() ([]byte, error) { return MarshalSetNonLeafResponse(r) }
func (r *SetNonLeafResponse) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalSetNonLeafResponse(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *PoseidonHashRequest) MarshalBinary() ([]byte, error) { return MarshalPoseidonHashRequest(r) }
func (r *PoseidonHashRequest) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalPoseidonHashRequest(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

func (r *PoseidonHashResponse) MarshalBinary() ([]byte, error) { return MarshalPoseidonHashResponse(r) }
func (r *PoseidonHashResponse) UnmarshalBinary(b []byte) error {
	v, err := UnmarshalPoseidonHashResponse(b)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}
